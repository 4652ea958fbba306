// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package loop

import (
	"context"
	"errors"
	"time"

	"code.hybscloud.com/callq"
	"code.hybscloud.com/spin"
	"github.com/joeycumines/logiface"
	"golang.org/x/sys/unix"
)

// DefaultPollInterval bounds how long Serve sleeps in poll before it
// checks its context again.
const DefaultPollInterval = 50 * time.Millisecond

// ErrNoSources is returned by Serve when called without channels.
var ErrNoSources = errors.New("loop: no sources")

// Option configures Serve.
type Option func(*options)

type options struct {
	pollInterval time.Duration
	spinRounds   int
	logger       *logiface.Logger[logiface.Event]
}

// WithPollInterval sets the longest single poll. Shorter intervals notice
// cancellation sooner at the cost of more wakeups while idle. Values <= 0
// select DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d <= 0 {
			d = DefaultPollInterval
		}
		o.pollInterval = d
	}
}

// WithSpin makes Serve invoke speculatively for up to rounds spin
// iterations before each poll. This trades CPU for latency under bursty
// load. Zero (the default) always goes straight to poll.
func WithSpin(rounds int) Option {
	return func(o *options) {
		o.spinRounds = max(rounds, 0)
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l *logiface.Logger[logiface.Event]) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Serve drains sources on the calling goroutine until ctx is done.
//
// The calling goroutine becomes the consumer of every source. Each time a
// source descriptor is readable Serve runs InvokeAll on it. When ctx is
// done Serve runs a final InvokeAll on every source, so calls dispatched
// before cancellation are not stranded, and returns ctx.Err(). A drain
// or poll failure stops Serve and is returned.
func Serve(ctx context.Context, sources []callq.Invoker, opts ...Option) error {
	if len(sources) == 0 {
		return ErrNoSources
	}
	o := options{pollInterval: DefaultPollInterval}
	for _, opt := range opts {
		opt(&o)
	}

	pfds := make([]unix.PollFd, len(sources))
	for i, src := range sources {
		pfds[i] = unix.PollFd{Fd: int32(src.Fd()), Events: unix.POLLIN}
	}
	o.logger.Debug().Int("sources", len(sources)).Log("loop: serve started")

	for {
		if err := ctx.Err(); err != nil {
			return o.finish(sources, err)
		}
		if o.spinRounds > 0 {
			if err := o.spin(sources); err != nil {
				return err
			}
		}
		n, err := poll(pfds, o.pollInterval)
		if err != nil {
			o.logger.Err().Err(err).Log("loop: poll")
			return err
		}
		if n == 0 {
			continue
		}
		for i := range pfds {
			if !ready(pfds[i]) {
				continue
			}
			if err := sources[i].InvokeAll(); err != nil {
				o.logger.Err().Err(err).Int("fd", int(pfds[i].Fd)).Log("loop: drain")
				return err
			}
		}
	}
}

// spin runs Invoke without touching descriptors. A source that makes
// progress is drained fully with InvokeAll, since partial drains defeat the
// empty to non-empty wakeup rule.
func (o *options) spin(sources []callq.Invoker) error {
	sw := spin.Wait{}
	for range o.spinRounds {
		for _, src := range sources {
			if src.Invoke() == 0 {
				continue
			}
			if err := src.InvokeAll(); err != nil {
				return err
			}
		}
		sw.Once()
	}
	return nil
}

func (o *options) finish(sources []callq.Invoker, cause error) error {
	errs := []error{cause}
	for _, src := range sources {
		if err := src.InvokeAll(); err != nil {
			errs = append(errs, err)
		}
	}
	o.logger.Debug().Log("loop: serve stopped")
	if len(errs) == 1 {
		return cause
	}
	return errors.Join(errs...)
}
