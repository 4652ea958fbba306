// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package loop

import (
	"errors"

	"code.hybscloud.com/callq"
	"github.com/eapache/queue"
)

// Outbox is an unbounded producer-side backlog in front of a Dispatcher.
//
// Push never reports ErrNoBufferSpace: calls that do not fit are kept in
// FIFO order and moved into the channel by Flush. Calls are delivered in
// Push order across the backlog and the channel.
//
// An Outbox belongs to the producer goroutine of its Dispatcher and is not
// safe for concurrent use.
type Outbox struct {
	dst     callq.Dispatcher
	backlog *queue.Queue
}

// NewOutbox creates an empty backlog in front of dst.
func NewOutbox(dst callq.Dispatcher) *Outbox {
	return &Outbox{dst: dst, backlog: queue.New()}
}

// Push dispatches fn(arg) directly when the backlog is empty, otherwise
// appends it to the backlog. Errors other than a full ring are returned.
func (o *Outbox) Push(fn func(arg any), arg any) error {
	if o.backlog.Length() == 0 {
		err := o.dst.Dispatch(fn, arg, false)
		if !callq.IsWouldBlock(err) {
			return err
		}
	}
	o.backlog.Add(callq.Call{Fn: fn, Arg: arg})
	return nil
}

// Flush moves as much of the backlog as fits into the channel and returns
// how many calls were moved. The moved calls are dispatched with deferred
// notification and the consumer is notified once at the end, also when a
// dispatch error stops the move early.
func (o *Outbox) Flush() (int, error) {
	n := 0
	for o.backlog.Length() > 0 {
		c := o.backlog.Peek().(callq.Call)
		err := o.dst.Dispatch(c.Fn, c.Arg, true)
		if callq.IsWouldBlock(err) {
			break
		}
		if err != nil {
			if n > 0 {
				err = errors.Join(err, o.dst.Notify())
			}
			return n, err
		}
		o.backlog.Remove()
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return n, o.dst.Notify()
}

// Len returns the number of calls waiting in the backlog.
func (o *Outbox) Len() int {
	return o.backlog.Length()
}
