// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package loop

import (
	"time"

	"code.hybscloud.com/callq"
	"golang.org/x/sys/unix"
)

// Readable waits up to timeout for fd to become readable.
// A negative timeout waits indefinitely; zero polls once.
func Readable(fd int, timeout time.Duration) (bool, error) {
	pfd := [1]unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := poll(pfd[:], timeout)
	return n > 0 && ready(pfd[0]), err
}

// Wait waits up to timeout for any of fds to become readable and returns
// the readable ones. A timeout with nothing readable returns an empty
// slice and no error.
func Wait(fds []int, timeout time.Duration) ([]int, error) {
	pfds := make([]unix.PollFd, len(fds))
	for i, fd := range fds {
		pfds[i] = unix.PollFd{Fd: int32(fd), Events: unix.POLLIN}
	}
	n, err := poll(pfds, timeout)
	if err != nil || n == 0 {
		return nil, err
	}
	out := make([]int, 0, n)
	for i := range pfds {
		if ready(pfds[i]) {
			out = append(out, fds[i])
		}
	}
	return out, nil
}

// ready reports whether a drain should be attempted. Errors and hangups
// are included so that the drain surfaces them.
func ready(p unix.PollFd) bool {
	return p.Revents&(unix.POLLIN|unix.POLLERR|unix.POLLHUP) != 0
}

func poll(pfds []unix.PollFd, timeout time.Duration) (int, error) {
	ms := millis(timeout)
	for {
		for i := range pfds {
			pfds[i].Revents = 0
		}
		n, err := unix.Poll(pfds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, &callq.OpError{Op: "poll", Err: err}
		}
		for i := range pfds {
			if pfds[i].Revents&unix.POLLNVAL != 0 {
				return n, &callq.OpError{Op: "poll", Err: unix.EBADF}
			}
		}
		return n, nil
	}
}

func millis(d time.Duration) int {
	switch {
	case d < 0:
		return -1
	case d == 0:
		return 0
	case d < time.Millisecond:
		return 1
	default:
		return int(d / time.Millisecond)
	}
}
