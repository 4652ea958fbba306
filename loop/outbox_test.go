// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package loop_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/callq"
	"code.hybscloud.com/callq/loop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDispatcher accepts up to room calls and then fails with err.
type stubDispatcher struct {
	room    int
	err     error
	calls   []callq.Call
	notifys int
}

func (s *stubDispatcher) Dispatch(fn func(arg any), arg any, _ bool) error {
	if len(s.calls) >= s.room {
		return s.err
	}
	s.calls = append(s.calls, callq.Call{Fn: fn, Arg: arg})
	return nil
}

func (s *stubDispatcher) Probe() error {
	if len(s.calls) >= s.room {
		return s.err
	}
	return nil
}

func (s *stubDispatcher) Notify() error {
	s.notifys++
	return nil
}

func TestOutboxFIFO(t *testing.T) {
	ch := newChannel(t, 4)
	out := loop.NewOutbox(ch)

	var got []int
	record := func(arg any) { got = append(got, arg.(int)) }
	for i := range 10 {
		require.NoError(t, out.Push(record, i))
	}
	assert.Equal(t, 7, out.Len())
	assert.Equal(t, uint64(3), ch.Pending())

	for out.Len() > 0 {
		require.NoError(t, ch.InvokeAll())
		moved, err := out.Flush()
		require.NoError(t, err)
		assert.NotZero(t, moved)
		ok, err := loop.Readable(ch.Fd(), 0)
		require.NoError(t, err)
		assert.True(t, ok, "Flush did not notify")
	}
	require.NoError(t, ch.InvokeAll())

	want := make([]int, 10)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

// TestOutboxPushBehindBacklog verifies that Push does not overtake calls
// already waiting in the backlog.
func TestOutboxPushBehindBacklog(t *testing.T) {
	d := &stubDispatcher{room: 1, err: callq.ErrNoBufferSpace}
	out := loop.NewOutbox(d)

	require.NoError(t, out.Push(nil, 1))
	require.NoError(t, out.Push(nil, 2))
	d.room = 10
	require.NoError(t, out.Push(nil, 3))
	assert.Equal(t, 2, out.Len())
	require.Len(t, d.calls, 1)

	moved, err := out.Flush()
	require.NoError(t, err)
	assert.Equal(t, 2, moved)
	assert.Equal(t, 1, d.notifys)

	args := make([]any, 0, len(d.calls))
	for _, c := range d.calls {
		args = append(args, c.Arg)
	}
	assert.Equal(t, []any{1, 2, 3}, args)
}

func TestOutboxFlushEmpty(t *testing.T) {
	d := &stubDispatcher{room: 4, err: callq.ErrNoBufferSpace}
	out := loop.NewOutbox(d)

	moved, err := out.Flush()
	require.NoError(t, err)
	assert.Zero(t, moved)
	assert.Zero(t, d.notifys)
}

func TestOutboxErrors(t *testing.T) {
	d := &stubDispatcher{room: 0, err: callq.ErrClosed}
	out := loop.NewOutbox(d)
	assert.ErrorIs(t, out.Push(nil, 1), callq.ErrClosed)
	assert.Zero(t, out.Len())

	d = &stubDispatcher{room: 0, err: callq.ErrNoBufferSpace}
	out = loop.NewOutbox(d)
	for i := range 3 {
		require.NoError(t, out.Push(nil, i))
	}
	d.room, d.err = 1, callq.ErrClosed
	moved, err := out.Flush()
	assert.ErrorIs(t, err, callq.ErrClosed)
	assert.Equal(t, 1, moved)
	assert.Equal(t, 1, d.notifys, "moved calls must still be notified")
	assert.Equal(t, 2, out.Len())
}

func TestSendImmediate(t *testing.T) {
	ch := newChannel(t, 4)
	ran := false
	require.NoError(t, loop.Send(context.Background(), ch, func(any) { ran = true }, nil))
	require.NoError(t, ch.InvokeAll())
	assert.True(t, ran)
}

func TestSendContextDone(t *testing.T) {
	ch := newChannel(t, 2)
	require.NoError(t, ch.Dispatch(func(any) {}, nil, false))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := loop.Send(ctx, ch, func(any) {}, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, uint64(1), ch.Pending())
}

func TestSendOtherError(t *testing.T) {
	ch, err := callq.NewChannel(2)
	require.NoError(t, err)
	require.NoError(t, ch.Close())

	err = loop.Send(context.Background(), ch, func(any) {}, nil)
	assert.True(t, errors.Is(err, callq.ErrClosed))
}
