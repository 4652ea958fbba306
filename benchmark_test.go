// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package callq_test

import (
	"fmt"
	"testing"

	"code.hybscloud.com/callq"
)

// =============================================================================
// Ring Baselines
// =============================================================================

func BenchmarkRing_SingleOp(b *testing.B) {
	q, _ := callq.NewRing[int](1024)
	in := []int{0}
	out := []int{0}

	b.ResetTimer()
	for i := range b.N {
		in[0] = i
		q.Put(in)
		q.Get(out)
	}
}

func BenchmarkRing_Execute(b *testing.B) {
	for _, batch := range []int{1, 16, 255} {
		b.Run(fmt.Sprintf("batch=%d", batch), func(b *testing.B) {
			q, _ := callq.NewRing[callq.Call](256)
			calls := make([]callq.Call, batch)
			for i := range calls {
				calls[i] = callq.Call{Fn: func(any) {}}
			}

			b.ResetTimer()
			for range b.N {
				q.Put(calls)
				q.Execute((*callq.Call).Invoke)
			}
		})
	}
}

// =============================================================================
// Channel Benchmarks
// =============================================================================

// BenchmarkChannel_DispatchInvokeAll measures a dispatch and full drain on
// one goroutine, including the notify and flush syscalls.
func BenchmarkChannel_DispatchInvokeAll(b *testing.B) {
	kinds := []callq.NotifierKind{callq.NotifierAuto, callq.NotifierPipe}
	for _, kind := range kinds {
		b.Run(kind.String(), func(b *testing.B) {
			ch, err := callq.New(1024).Notifier(kind).Build()
			if err != nil {
				b.Fatal(err)
			}
			defer ch.Close()
			nop := func(any) {}

			b.ResetTimer()
			for range b.N {
				_ = ch.Dispatch(nop, nil, false)
				_ = ch.InvokeAll()
			}
		})
	}
}

// BenchmarkChannel_Batch measures deferred dispatch with one Notify per
// batch, amortizing the syscalls.
func BenchmarkChannel_Batch(b *testing.B) {
	for _, batch := range []int{8, 64, 512} {
		b.Run(fmt.Sprintf("batch=%d", batch), func(b *testing.B) {
			ch, err := callq.NewChannel(1024)
			if err != nil {
				b.Fatal(err)
			}
			defer ch.Close()
			nop := func(any) {}

			b.ResetTimer()
			for range b.N {
				for range batch {
					_ = ch.Dispatch(nop, nil, true)
				}
				_ = ch.Notify()
				_ = ch.InvokeAll()
			}
			b.ReportMetric(float64(b.N*batch)/b.Elapsed().Seconds(), "calls/s")
		})
	}
}
