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
	"slices"
	"time"

	"code.hybscloud.com/callq"
	"code.hybscloud.com/callq/loop"
	"github.com/joeycumines/logiface"
)

// replyWait bounds a single wait for a response before the context is
// checked again.
const replyWait = 100 * time.Millisecond

type ping struct {
	seq      int
	origin   time.Time // Stamped by the client before dispatch
	received time.Time // Stamped by the server
	returned time.Time // Stamped by the client on reply
}

type pingResult struct {
	count   int
	oneWay  time.Duration // Sum of origin to received
	rtts    []time.Duration
	elapsed time.Duration
}

func (r *pingResult) record(p *ping) {
	r.oneWay += p.received.Sub(p.origin)
	r.rtts = append(r.rtts, p.returned.Sub(p.origin))
	r.count++
}

// percentile returns the q-th quantile of sorted, nearest rank.
func percentile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	i := int(q*float64(len(sorted))+0.5) - 1
	return sorted[min(max(i, 0), len(sorted)-1)]
}

type rttStats struct {
	min, avg, max, p50, p99 time.Duration
}

func (r *pingResult) stats() rttStats {
	if len(r.rtts) == 0 {
		return rttStats{}
	}
	sorted := slices.Clone(r.rtts)
	slices.Sort(sorted)
	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	return rttStats{
		min: sorted[0],
		avg: sum / time.Duration(len(sorted)),
		max: sorted[len(sorted)-1],
		p50: percentile(sorted, 0.50),
		p99: percentile(sorted, 0.99),
	}
}

func (r *pingResult) print(w io.Writer, cfg config) {
	s := r.stats()
	fmt.Fprintf(w, "pingpong: capacity=%d notifier=%s count=%d elapsed=%v\n", cfg.capacity, notifierName(cfg), r.count, r.elapsed.Round(time.Millisecond))
	if r.count == 0 {
		return
	}
	fmt.Fprintf(w, "  one-way avg: %v\n", r.oneWay/time.Duration(r.count))
	fmt.Fprintf(w, "  rtt min:     %v\n", s.min)
	fmt.Fprintf(w, "  rtt avg:     %v\n", s.avg)
	fmt.Fprintf(w, "  rtt p50:     %v\n", s.p50)
	fmt.Fprintf(w, "  rtt p99:     %v\n", s.p99)
	fmt.Fprintf(w, "  rtt max:     %v\n", s.max)
}

// runPingPong sends cfg.count requests one at a time. The server goroutine
// stamps each request and dispatches it back on the response channel; the
// client waits for the reply before the next request.
func runPingPong(ctx context.Context, cfg config, logger *logiface.Logger[logiface.Event]) (res *pingResult, err error) {
	req, err := newChannel(cfg, logger)
	if err != nil {
		return nil, err
	}
	resp, err := newChannel(cfg, logger)
	if err != nil {
		_ = req.Close()
		return nil, err
	}
	defer closeAll(&err, req, resp)

	res = &pingResult{rtts: make([]time.Duration, 0, cfg.count)}
	replied := false
	onReply := func(arg any) {
		p := arg.(*ping)
		p.returned = time.Now()
		res.record(p)
		replied = true
	}

	serveCtx, stopServe := context.WithCancel(context.Background())
	defer stopServe()
	// Server-owned.
	var serverErr error
	onRequest := func(arg any) {
		p := arg.(*ping)
		p.received = time.Now()
		if err := loop.Send(serveCtx, resp, onReply, p); err != nil && serverErr == nil {
			serverErr = err
		}
	}
	served := make(chan error, 1)
	go func() {
		served <- loop.Serve(serveCtx, []callq.Invoker{req}, loop.WithLogger(logger))
	}()
	stop := func() error {
		stopServe()
		err := <-served
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		return errors.Join(err, serverErr)
	}

	start := time.Now()
	for i := 0; i < cfg.count && ctx.Err() == nil; i++ {
		replied = false
		p := &ping{seq: i, origin: time.Now()}
		if err := loop.Send(ctx, req, onRequest, p); err != nil {
			break
		}
		for !replied && ctx.Err() == nil {
			ok, err := loop.Readable(resp.Fd(), replyWait)
			if err != nil {
				return res, errors.Join(err, stop())
			}
			if !ok {
				continue
			}
			if err := resp.InvokeAll(); err != nil {
				return res, errors.Join(err, stop())
			}
		}
	}
	res.elapsed = time.Since(start)

	if err := stop(); err != nil {
		return res, err
	}
	// A reply still in flight when ctx ended.
	if err := resp.InvokeAll(); err != nil {
		return res, err
	}

	s := res.stats()
	logger.Info().
		Int("count", res.count).
		Dur("rtt_avg", s.avg).
		Dur("rtt_p99", s.p99).
		Log("pingpong finished")
	return res, nil
}
