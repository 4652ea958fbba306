// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package callq

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// For Dispatch, DispatchBatch and Probe it means the ring is full and the
// call was not accepted. The call and its argument remain owned by the
// caller, who decides whether to drop, retry, or apply backpressure.
//
// ErrWouldBlock is a control flow signal, not a failure.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrNoBufferSpace is returned when the ring has no free slot.
// It is the same value as [ErrWouldBlock].
var ErrNoBufferSpace = ErrWouldBlock

var (
	// ErrInvalidCapacity is returned when the requested capacity is not a
	// power of two greater than or equal to 2.
	ErrInvalidCapacity = errors.New("callq: capacity must be a power of two >= 2")

	// ErrClosed is returned by operations on a closed Channel.
	ErrClosed = errors.New("callq: channel closed")
)

// OpError reports a failure of a descriptor operation.
//
// Op is "create", "close", "notify" or "flush" for channel descriptors, and
// "poll" for readiness waits in package loop. Err is usually a
// [golang.org/x/sys/unix.Errno], so errors.Is works against errno values.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return "callq: " + e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil, ErrWouldBlock, or ErrMore.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
