// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package callq

import "golang.org/x/sys/unix"

// openNotifier creates an eventfd for NotifierAuto and NotifierEventfd, or
// a pipe shrunk to pipeSize bytes for NotifierPipe.
func openNotifier(kind NotifierKind, pipeSize int) (notifier, error) {
	if kind == NotifierPipe {
		return openPipe(pipeSize)
	}
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return noNotifier, &OpError{Op: "create", Err: err}
	}
	return notifier{rfd: fd, wfd: fd}, nil
}

func openPipe(pipeSize int) (notifier, error) {
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return noNotifier, &OpError{Op: "create", Err: err}
	}
	n := notifier{rfd: p[0], wfd: p[1]}
	if pipeSize > 0 {
		// Both ends share one pipe buffer.
		if _, err := unix.FcntlInt(uintptr(n.wfd), unix.F_SETPIPE_SZ, pipeSize); err != nil {
			_ = n.close()
			return noNotifier, &OpError{Op: "create", Err: err}
		}
	}
	return n, nil
}
