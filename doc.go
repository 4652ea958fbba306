// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package callq transfers function calls from one goroutine to another
// through a bounded lock-free queue with a pollable wakeup descriptor.
//
// A [Channel] couples two pieces:
//
//   - [Ring]: a single-producer single-consumer ring buffer with atomic
//     cursors and an occupancy count
//   - a notifier: an eventfd (Linux) or a non-blocking self-pipe whose read
//     end becomes readable when calls are waiting
//
// The consumer integrates [Channel.Fd] into whatever readiness loop it
// already runs (poll, epoll, kqueue, or [code.hybscloud.com/callq/loop])
// and drains with [Channel.InvokeAll] when the descriptor is readable.
//
// # Quick Start
//
//	ch, err := callq.NewChannel(1024)
//	if err != nil {
//	    return err
//	}
//	defer ch.Close()
//
//	// Producer goroutine
//	err = ch.Dispatch(func(arg any) {
//	    req := arg.(*Request)
//	    handle(req)
//	}, req, false)
//	if callq.IsWouldBlock(err) {
//	    // Ring full: drop, retry later, or apply backpressure
//	}
//
//	// Consumer goroutine, after Fd reports readable
//	if err := ch.InvokeAll(); err != nil {
//	    return err
//	}
//
// Builder API for non-default notifiers:
//
//	ch, err := callq.New(1024).Pipe().PipeSize(4096).Logger(logger).Build()
//
// # Wakeup Protocol
//
// Dispatch signals the descriptor only when it moves the ring from empty to
// non-empty. Calls dispatched while the consumer is already due to wake add
// no descriptor traffic. The signal is binary: several notifications before
// a drain read back as one readable event.
//
// The consumer side must:
//
//  1. flush the descriptor (clear readiness), then
//  2. run calls until the ring is empty.
//
// [Channel.InvokeAll] does both. Flushing first means a call dispatched
// during the drain is either run in this cycle or signals a new one. A
// consumer that drains partially and goes back to waiting can miss calls
// until an unrelated notification arrives.
//
// Batching (deferred notification):
//
//	for _, job := range jobs {
//	    if err := ch.Dispatch(run, job, true); err != nil {
//	        break
//	    }
//	}
//	_ = ch.Notify() // one wakeup for the batch
//
// # Capacity
//
// Capacity must be a power of 2 and at least 2; anything else fails with
// [ErrInvalidCapacity]. Capacity is not rounded. One slot is always kept
// empty, so a channel of capacity n holds at most n-1 pending calls:
//
//	ch, _ := callq.NewChannel(16) // 15 calls fit
//
// Use [Channel.Probe] before building an expensive argument to learn
// whether a Dispatch would currently succeed.
//
// # Error Handling
//
// A full ring is reported as [ErrNoBufferSpace], which is [ErrWouldBlock]
// from [code.hybscloud.com/iox]. It is a control flow signal: the call was
// not queued and the argument still belongs to the caller.
//
// Descriptor failures are reported as [*OpError]. The only retry done
// internally is for EINTR on descriptor reads and writes.
//
//	callq.IsWouldBlock(err)  // true if the ring is full
//	callq.IsSemantic(err)    // true if control flow signal
//	callq.IsNonFailure(err)  // true if nil or ErrWouldBlock
//
// # Thread Safety
//
// Exactly one goroutine may produce (Dispatch, DispatchBatch, Probe, Notify)
// and exactly one goroutine may consume (Invoke, InvokeWithFlush, InvokeAll)
// on a given Channel. They may be the same goroutine. Violating this
// causes undefined behavior including lost and duplicated calls; it is not
// detected at runtime. For two-way traffic use two channels, one per
// direction. Close is not part of either side: call it only once both have
// stopped.
//
// Calls run synchronously on the consumer goroutine in dispatch order. Any
// write the producer makes to an argument before Dispatch is visible to the
// call when it runs.
//
// # Race Detection
//
// The ring protects its slots with acquire-release ordering on the cursors,
// which Go's race detector cannot observe. Concurrent tests that would
// report false positives are excluded via //go:build !race.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomic primitives with
// explicit memory ordering, [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/spin] for CPU pause while a cursor publish is in
// flight, [golang.org/x/sys/unix] for the notifier, and
// [github.com/joeycumines/logiface] for optional structured logging.
package callq
