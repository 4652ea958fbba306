// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix && !linux

package callq

import (
	"errors"

	"golang.org/x/sys/unix"
)

// openNotifier creates a self-pipe. eventfd is Linux only.
func openNotifier(kind NotifierKind, pipeSize int) (notifier, error) {
	if kind == NotifierEventfd {
		return noNotifier, &OpError{Op: "create", Err: errors.ErrUnsupported}
	}
	return openPipe(pipeSize)
}

// openPipe ignores pipeSize: there is no portable way to shrink a pipe
// buffer outside Linux.
func openPipe(_ int) (notifier, error) {
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		return noNotifier, &OpError{Op: "create", Err: err}
	}
	n := notifier{rfd: p[0], wfd: p[1]}
	unix.CloseOnExec(n.rfd)
	unix.CloseOnExec(n.wfd)
	for _, fd := range p {
		if err := unix.SetNonblock(fd, true); err != nil {
			_ = n.close()
			return noNotifier, &OpError{Op: "create", Err: err}
		}
	}
	return n, nil
}
