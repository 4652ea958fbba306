// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package callq

import (
	"encoding/binary"
	"errors"
	"io"

	"golang.org/x/sys/unix"
)

// markerSize is the size of one notification write. eventfd requires
// exactly 8 bytes per write, pipes accept the same marker.
const markerSize = 8

// wakeMarker is a native-endian 1. A zero write would not make an eventfd
// readable.
var wakeMarker = func() (b [markerSize]byte) {
	binary.NativeEndian.PutUint64(b[:], 1)
	return
}()

// notifier is the readiness signal behind a Channel. rfd is pollable; wfd
// is written by the producer. Both are the same descriptor for eventfd.
type notifier struct {
	rfd int
	wfd int
}

var noNotifier = notifier{rfd: -1, wfd: -1}

// signal writes one marker. EAGAIN means the descriptor is already
// readable, which is all a marker can express.
func (n *notifier) signal() error {
	for {
		c, err := unix.Write(n.wfd, wakeMarker[:])
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return nil
		case err != nil:
			return &OpError{Op: "notify", Err: err}
		case c != markerSize:
			return &OpError{Op: "notify", Err: io.ErrShortWrite}
		}
		return nil
	}
}

// drain discards every pending marker. Nothing pending is not an error;
// end of file is.
func (n *notifier) drain(buf []byte) error {
	for {
		c, err := unix.Read(n.rfd, buf)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return nil
		case err != nil:
			return &OpError{Op: "flush", Err: err}
		case c == 0:
			// EOF: the write end is gone and no wakeup can arrive.
			return &OpError{Op: "flush", Err: io.ErrUnexpectedEOF}
		case c < len(buf):
			// Short read: the descriptor was emptied (eventfd resets on
			// any successful read).
			return nil
		}
	}
}

func (n *notifier) close() error {
	var errs []error
	if n.rfd >= 0 {
		if err := unix.Close(n.rfd); err != nil {
			errs = append(errs, &OpError{Op: "close", Err: err})
		}
	}
	if n.wfd >= 0 && n.wfd != n.rfd {
		if err := unix.Close(n.wfd); err != nil {
			errs = append(errs, &OpError{Op: "close", Err: err})
		}
	}
	*n = noNotifier
	return errors.Join(errs...)
}
