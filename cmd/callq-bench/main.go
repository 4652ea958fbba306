// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

// Command callq-bench measures call channel throughput and round trip
// latency between two goroutines.
//
// Usage:
//
//	go run ./cmd/callq-bench -mode perf -duration 5s -capacity 16
//	go run ./cmd/callq-bench -mode pingpong -count 100000 -pipe
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"code.hybscloud.com/callq"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

type config struct {
	mode     string
	duration time.Duration
	capacity int
	count    int
	pipe     bool
	logLevel logiface.Level
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "callq-bench:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	logger := newLogger(stderr, cfg.logLevel)

	switch cfg.mode {
	case "perf":
		res, err := runPerf(ctx, cfg, logger)
		if err != nil {
			return err
		}
		res.print(stdout, cfg)
	case "pingpong":
		res, err := runPingPong(ctx, cfg, logger)
		if err != nil {
			return err
		}
		res.print(stdout, cfg)
	}
	return nil
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	fs := flag.NewFlagSet("callq-bench", flag.ContinueOnError)
	fs.SetOutput(stderr)
	mode := fs.String("mode", "perf", "benchmark to run: perf or pingpong")
	duration := fs.Duration("duration", 5*time.Second, "perf run time")
	capacity := fs.Int("capacity", 16, "ring capacity of each channel (power of 2)")
	count := fs.Int("count", 100_000, "pingpong round trips")
	pipe := fs.Bool("pipe", false, "use a self-pipe instead of eventfd")
	level := fs.String("log-level", "warning", "log level: none, err, warning, info, debug, trace")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	cfg := config{
		mode:     *mode,
		duration: *duration,
		capacity: *capacity,
		count:    *count,
		pipe:     *pipe,
	}
	switch cfg.mode {
	case "perf", "pingpong":
	default:
		return config{}, fmt.Errorf("unknown mode %q", cfg.mode)
	}
	if cfg.duration <= 0 {
		return config{}, fmt.Errorf("duration must be positive, got %v", cfg.duration)
	}
	if cfg.count <= 0 {
		return config{}, fmt.Errorf("count must be positive, got %d", cfg.count)
	}
	lvl, err := parseLevel(*level)
	if err != nil {
		return config{}, err
	}
	cfg.logLevel = lvl
	return cfg, nil
}

func parseLevel(s string) (logiface.Level, error) {
	switch strings.ToLower(s) {
	case "none", "off":
		return logiface.LevelDisabled, nil
	case "err", "error":
		return logiface.LevelError, nil
	case "warn", "warning":
		return logiface.LevelWarning, nil
	case "info":
		return logiface.LevelInformational, nil
	case "debug":
		return logiface.LevelDebug, nil
	case "trace":
		return logiface.LevelTrace, nil
	}
	return logiface.LevelDisabled, fmt.Errorf("unknown log level %q", s)
}

func newLogger(w io.Writer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	).Logger()
}

// newChannel builds one direction of traffic.
func newChannel(cfg config, logger *logiface.Logger[logiface.Event]) (*callq.Channel, error) {
	b := callq.New(cfg.capacity).Logger(logger)
	if cfg.pipe {
		b = b.Pipe()
	}
	return b.Build()
}

// closeAll closes channels, joining any failures into err.
func closeAll(err *error, chs ...*callq.Channel) {
	for _, ch := range chs {
		if cerr := ch.Close(); cerr != nil {
			*err = errors.Join(*err, cerr)
		}
	}
}
