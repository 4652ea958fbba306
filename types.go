// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package callq

// Dispatcher is the producer side of a call channel.
//
// All methods are non-blocking. Dispatch returns ErrNoBufferSpace when the
// channel is full. Exactly one goroutine may use a Dispatcher at a time.
type Dispatcher interface {
	// Dispatch queues fn(arg) for the consumer.
	// With deferNotify the caller is responsible for calling Notify.
	Dispatch(fn func(arg any), arg any, deferNotify bool) error

	// Probe returns ErrNoBufferSpace if Dispatch would fail, nil otherwise.
	Probe() error

	// Notify wakes the consumer.
	Notify() error
}

// Invoker is the consumer side of a call channel.
//
// Fd is polled for readability; InvokeAll then runs everything queued. Calls
// run synchronously on the goroutine that invokes them. Exactly one
// goroutine may use an Invoker at a time.
type Invoker interface {
	// Fd returns the descriptor that becomes readable when calls arrive.
	Fd() int

	// Invoke runs the calls currently queued without touching Fd.
	// Returns how many ran.
	Invoke() int

	// InvokeWithFlush clears Fd readiness, then runs the calls currently
	// queued.
	InvokeWithFlush() (int, error)

	// InvokeAll clears Fd readiness and runs calls until none remain.
	InvokeAll() error
}
