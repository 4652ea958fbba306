// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package loop layers blocking behavior on top of callq channels.
//
// The callq primitives never block. This package provides the pieces a
// program usually wants around them:
//
//   - [Readable] and [Wait]: poll(2) readiness on channel descriptors
//   - [Serve]: a consumer loop draining one or more channels until its
//     context is done
//   - [Send]: a producer that waits for ring space with [iox.Backoff]
//   - [Outbox]: an unbounded producer-side backlog in front of a channel
//
// Example:
//
//	ch, _ := callq.NewChannel(1024)
//	ctx, cancel := context.WithCancel(context.Background())
//	go loop.Serve(ctx, []callq.Invoker{ch})
//
//	// Producer goroutine
//	_ = loop.Send(ctx, ch, func(arg any) { handle(arg.(*Request)) }, req)
//
// [iox.Backoff]: https://pkg.go.dev/code.hybscloud.com/iox#Backoff
package loop
