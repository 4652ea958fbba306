// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package main

import (
	"bytes"
	"context"
	"flag"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := parseFlags(nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "perf", cfg.mode)
	assert.Equal(t, 5*time.Second, cfg.duration)
	assert.Equal(t, 16, cfg.capacity)
	assert.Equal(t, 100_000, cfg.count)
	assert.False(t, cfg.pipe)
	assert.Equal(t, logiface.LevelWarning, cfg.logLevel)
}

func TestParseFlags(t *testing.T) {
	cfg, err := parseFlags([]string{
		"-mode", "pingpong",
		"-duration", "250ms",
		"-capacity", "64",
		"-count", "10",
		"-pipe",
		"-log-level", "debug",
	}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, config{
		mode:     "pingpong",
		duration: 250 * time.Millisecond,
		capacity: 64,
		count:    10,
		pipe:     true,
		logLevel: logiface.LevelDebug,
	}, cfg)
}

func TestParseFlagsErrors(t *testing.T) {
	for _, args := range [][]string{
		{"-mode", "bogus"},
		{"-duration", "0s"},
		{"-count", "0"},
		{"-log-level", "loud"},
		{"-nope"},
	} {
		_, err := parseFlags(args, &bytes.Buffer{})
		assert.Error(t, err, "args %q", args)
	}

	_, err := parseFlags([]string{"-h"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]logiface.Level{
		"none":    logiface.LevelDisabled,
		"err":     logiface.LevelError,
		"ERROR":   logiface.LevelError,
		"warn":    logiface.LevelWarning,
		"info":    logiface.LevelInformational,
		"debug":   logiface.LevelDebug,
		"trace":   logiface.LevelTrace,
		"warning": logiface.LevelWarning,
	} {
		got, err := parseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestRunInvalidCapacity(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-capacity", "15", "-duration", "10ms"}, &stdout, &stderr)
	assert.Error(t, err)
	assert.Empty(t, stdout.String())
}

func TestPercentile(t *testing.T) {
	sorted := make([]time.Duration, 100)
	for i := range sorted {
		sorted[i] = time.Duration(i+1) * time.Microsecond
	}
	assert.Equal(t, 50*time.Microsecond, percentile(sorted, 0.50))
	assert.Equal(t, 99*time.Microsecond, percentile(sorted, 0.99))
	assert.Equal(t, 100*time.Microsecond, percentile(sorted, 1))
	assert.Equal(t, 1*time.Microsecond, percentile(sorted, 0))
	assert.Zero(t, percentile(nil, 0.5))
}

func TestPingStats(t *testing.T) {
	var r pingResult
	base := time.Unix(0, 0)
	for _, rtt := range []time.Duration{3, 1, 2} {
		r.record(&ping{
			origin:   base,
			received: base.Add(rtt / 2),
			returned: base.Add(rtt * time.Millisecond),
		})
	}
	s := r.stats()
	assert.Equal(t, 3, r.count)
	assert.Equal(t, 1*time.Millisecond, s.min)
	assert.Equal(t, 2*time.Millisecond, s.avg)
	assert.Equal(t, 3*time.Millisecond, s.max)
	assert.Equal(t, []time.Duration{3 * time.Millisecond, time.Millisecond, 2 * time.Millisecond}, r.rtts, "record keeps arrival order")
}
