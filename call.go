// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package callq

// Call is a deferred function call: a function and the single argument it
// will be invoked with on the consumer goroutine.
//
// Ownership semantics: the producer hands Arg over at dispatch time and must
// not touch it afterwards. Fn owns Arg once invoked. A call rejected with
// ErrNoBufferSpace stays with the producer.
type Call struct {
	Fn  func(arg any)
	Arg any
}

// Invoke calls c.Fn with c.Arg.
func (c *Call) Invoke() {
	c.Fn(c.Arg)
}
