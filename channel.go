// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package callq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
	"github.com/joeycumines/logiface"
)

// Channel is a ring of deferred calls paired with a pollable descriptor.
//
// The producer goroutine calls Dispatch, DispatchBatch, Probe and Notify.
// The consumer goroutine polls Fd for readability and calls InvokeAll (or
// InvokeWithFlush and Invoke) to run the queued calls in FIFO order.
//
// Dispatch only signals the descriptor when it moves the ring from empty to
// non-empty. A consumer that was woken must therefore keep draining until
// the ring is empty before waiting again, which is what InvokeAll does. A
// consumer that drains partially and goes back to poll may stall until the
// next unrelated notification.
type Channel struct {
	_      pad
	closed atomix.Uint64
	_      pad
	ring   *Ring[Call]
	n      notifier
	kind   NotifierKind
	logger *logiface.Logger[logiface.Event]
	buf    [DefaultPipeSize]byte // Consumer-owned flush scratch
}

// NewChannel creates a channel with default options.
// Equivalent to New(capacity).Build().
func NewChannel(capacity int) (*Channel, error) {
	return New(capacity).Build()
}

// Build creates the channel.
//
// Returns ErrInvalidCapacity for a bad capacity, or an *OpError with Op
// "create" when the notification descriptor cannot be opened or
// configured. Nothing is leaked on failure.
func (b *Builder) Build() (*Channel, error) {
	ring, err := NewRing[Call](b.opts.capacity)
	if err != nil {
		return nil, err
	}
	n, err := openNotifier(b.opts.notifier, b.opts.pipeSize)
	if err != nil {
		b.opts.logger.Err().
			Err(err).
			Str("notifier", b.opts.notifier.String()).
			Log("callq: open notifier")
		return nil, err
	}
	kind := NotifierPipe
	if n.rfd == n.wfd {
		kind = NotifierEventfd
	}
	c := &Channel{
		ring:   ring,
		n:      n,
		kind:   kind,
		logger: b.opts.logger,
	}
	c.logger.Debug().
		Int("fd", n.rfd).
		Int("capacity", ring.Cap()).
		Str("notifier", kind.String()).
		Log("callq: channel created")
	return c, nil
}

// Close releases the descriptor(s) and the ring.
//
// The ring is released even when closing a descriptor fails; close
// failures are returned joined, each as an *OpError with Op "close".
// Calls still pending are dropped without being invoked.
// Returns ErrClosed if already closed.
//
// Close must not run concurrently with any other method: stop the producer
// and the consumer first. Only calls made after Close returns are
// guaranteed to report ErrClosed.
func (c *Channel) Close() error {
	if !c.closed.CompareAndSwapAcqRel(0, 1) {
		return ErrClosed
	}
	fd := c.n.rfd
	err := c.n.close()
	c.ring = nil
	if err != nil {
		c.logger.Err().Err(err).Int("fd", fd).Log("callq: close")
	}
	return err
}

// Probe reports whether at least one call can be dispatched.
// Returns ErrNoBufferSpace if the ring is full. No side effects.
func (c *Channel) Probe() error {
	if c.closed.LoadAcquire() != 0 {
		return ErrClosed
	}
	if c.ring.FreeCount() == 0 {
		return ErrNoBufferSpace
	}
	return nil
}

// Notify signals the descriptor (producer only).
//
// Used after dispatching with deferNotify set. Retries on EINTR; a full
// pipe counts as success because the descriptor is already readable.
func (c *Channel) Notify() error {
	if c.closed.LoadAcquire() != 0 {
		return ErrClosed
	}
	return c.notify()
}

func (c *Channel) notify() error {
	err := c.n.signal()
	if err != nil {
		c.logger.Err().Err(err).Int("fd", c.n.wfd).Log("callq: notify")
	}
	return err
}

// Dispatch queues fn(arg) for the consumer (producer only).
//
// Returns ErrNoBufferSpace if the ring is full; the call is dropped and arg
// is still owned by the caller. Unless deferNotify is set, the descriptor
// is signaled when this call makes the ring non-empty. With deferNotify the
// caller must call Notify itself, typically once after a batch.
func (c *Channel) Dispatch(fn func(arg any), arg any, deferNotify bool) error {
	if c.closed.LoadAcquire() != 0 {
		return ErrClosed
	}
	call := [1]Call{{Fn: fn, Arg: arg}}
	n, prior := c.ring.Put(call[:])
	if n != 1 {
		return ErrNoBufferSpace
	}
	if !deferNotify && prior == 0 {
		return c.notify()
	}
	return nil
}

// DispatchBatch queues as many of calls as fit (producer only).
//
// Returns the number queued. If fewer than len(calls) fit, the error is
// ErrNoBufferSpace and calls[n:] remain owned by the caller. The
// notification rule is that of Dispatch, applied to the batch as a whole.
func (c *Channel) DispatchBatch(calls []Call, deferNotify bool) (int, error) {
	if c.closed.LoadAcquire() != 0 {
		return 0, ErrClosed
	}
	n, prior := c.ring.Put(calls)
	var err error
	if n > 0 && !deferNotify && prior == 0 {
		err = c.notify()
	}
	if err == nil && n < len(calls) {
		err = ErrNoBufferSpace
	}
	return n, err
}

// Fd returns the pollable read descriptor, or -1 after Close.
//
// It becomes readable after Notify (explicit or from Dispatch) and stays
// readable until the next InvokeWithFlush or InvokeAll.
func (c *Channel) Fd() int {
	return c.n.rfd
}

// Notifier returns the kind of descriptor in use.
func (c *Channel) Notifier() NotifierKind {
	return c.kind
}

// Invoke runs every call currently published (consumer only) and returns
// how many ran. The descriptor is not touched, so Invoke is safe to call
// speculatively.
func (c *Channel) Invoke() int {
	if c.closed.LoadAcquire() != 0 {
		return 0
	}
	n, _ := c.ring.Execute((*Call).Invoke)
	return n
}

// InvokeWithFlush discards pending notifications and then runs the
// published calls (consumer only).
//
// The descriptor is flushed first, so a call dispatched during the run is
// either run now or signals again. Returns an *OpError with Op "flush" on a
// read failure other than EAGAIN, in which case no call is run.
func (c *Channel) InvokeWithFlush() (int, error) {
	if c.closed.LoadAcquire() != 0 {
		return 0, ErrClosed
	}
	if err := c.flush(); err != nil {
		return 0, err
	}
	n, _ := c.ring.Execute((*Call).Invoke)
	return n, nil
}

// InvokeAll flushes the descriptor and runs calls until the ring is empty
// (consumer only). Call it whenever Fd is readable.
func (c *Channel) InvokeAll() error {
	if c.closed.LoadAcquire() != 0 {
		return ErrClosed
	}
	if err := c.flush(); err != nil {
		return err
	}
	_, remaining := c.ring.Execute((*Call).Invoke)
	sw := spin.Wait{}
	for remaining > 0 {
		// A counted element whose cursor is not yet published belongs to
		// this cycle: its producer saw a non-zero prior and did not notify.
		var n int
		n, remaining = c.ring.Execute((*Call).Invoke)
		if n == 0 {
			sw.Once()
		}
	}
	return nil
}

func (c *Channel) flush() error {
	err := c.n.drain(c.buf[:])
	if err != nil {
		c.logger.Err().Err(err).Int("fd", c.n.rfd).Log("callq: flush")
	}
	return err
}

// Pending returns the number of dispatched calls not yet run.
func (c *Channel) Pending() uint64 {
	if c.closed.LoadAcquire() != 0 {
		return 0
	}
	return c.ring.Len()
}

// FreeCount returns how many calls can be dispatched before the ring is
// full.
func (c *Channel) FreeCount() uint64 {
	if c.closed.LoadAcquire() != 0 {
		return 0
	}
	return c.ring.FreeCount()
}

// Cap returns the ring capacity. At most Cap()-1 calls can be pending.
func (c *Channel) Cap() int {
	if c.closed.LoadAcquire() != 0 {
		return 0
	}
	return c.ring.Cap()
}

var (
	_ Dispatcher = (*Channel)(nil)
	_ Invoker    = (*Channel)(nil)
)
