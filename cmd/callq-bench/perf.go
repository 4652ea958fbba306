// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"code.hybscloud.com/callq"
	"code.hybscloud.com/callq/loop"
	"github.com/joeycumines/logiface"
)

type perfMessage struct {
	seq uint64
}

type perfResult struct {
	sent     uint64 // Dispatched to the consumer
	full     uint64 // Skipped because the forward ring was full
	returned uint64 // Released back on the producer
	dropped  uint64 // Consumed but not returned, return ring full
	elapsed  time.Duration
}

func (r perfResult) print(w io.Writer, cfg config) {
	rate := float64(r.sent) / r.elapsed.Seconds()
	fmt.Fprintf(w, "perf: capacity=%d notifier=%s duration=%v\n", cfg.capacity, notifierName(cfg), r.elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  sent:     %d\n", r.sent)
	fmt.Fprintf(w, "  returned: %d\n", r.returned)
	fmt.Fprintf(w, "  dropped:  %d\n", r.dropped)
	fmt.Fprintf(w, "  full:     %d\n", r.full)
	fmt.Fprintf(w, "  rate:     %.2f M msg/sec\n", rate/1e6)
}

func notifierName(cfg config) string {
	if cfg.pipe {
		return callq.NotifierPipe.String()
	}
	return callq.NotifierAuto.String()
}

// runPerf drives messages in a loop between two goroutines for
// cfg.duration. The producer dispatches a message whenever the forward ring
// has room and nothing is waiting on the return ring. The consumer sends each
// message back for release, or drops it when the return ring is full.
func runPerf(ctx context.Context, cfg config, logger *logiface.Logger[logiface.Event]) (res perfResult, err error) {
	fwd, err := newChannel(cfg, logger)
	if err != nil {
		return res, err
	}
	back, err := newChannel(cfg, logger)
	if err != nil {
		_ = fwd.Close()
		return res, err
	}
	defer closeAll(&err, fwd, back)

	// Consumer-owned.
	var dropped uint64
	var consumerErr error
	release := func(any) { res.returned++ }
	consume := func(arg any) {
		if back.Probe() != nil {
			dropped++
			return
		}
		if err := back.Dispatch(release, arg, false); err != nil && consumerErr == nil {
			consumerErr = err
		}
	}

	serveCtx, stopServe := context.WithCancel(context.Background())
	defer stopServe()
	served := make(chan error, 1)
	go func() {
		served <- loop.Serve(serveCtx, []callq.Invoker{fwd}, loop.WithLogger(logger))
	}()

	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, cfg.duration)
	defer cancel()
	for runCtx.Err() == nil {
		ok, err := loop.Readable(back.Fd(), 0)
		if err != nil {
			stopServe()
			<-served
			return res, err
		}
		if ok {
			if err := back.InvokeAll(); err != nil {
				stopServe()
				<-served
				return res, err
			}
			continue
		}
		if fwd.Probe() != nil {
			res.full++
			continue
		}
		if err := fwd.Dispatch(consume, &perfMessage{seq: res.sent}, false); err != nil {
			stopServe()
			<-served
			return res, err
		}
		res.sent++
	}
	res.elapsed = time.Since(start)

	// The producer has stopped, so the final drain in Serve sees every
	// forward message.
	stopServe()
	if err := <-served; !errors.Is(err, context.Canceled) {
		return res, err
	}
	if consumerErr != nil {
		return res, consumerErr
	}
	res.dropped = dropped
	if err := back.InvokeAll(); err != nil {
		return res, err
	}

	logger.Info().
		Uint64("sent", res.sent).
		Uint64("returned", res.returned).
		Uint64("dropped", res.dropped).
		Dur("elapsed", res.elapsed).
		Log("perf finished")
	return res, nil
}
