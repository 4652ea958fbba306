// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package callq_test

import (
	"fmt"

	"code.hybscloud.com/callq"
)

// ExampleNewChannel dispatches a few calls and drains them on the same
// goroutine.
func ExampleNewChannel() {
	ch, err := callq.NewChannel(8)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer ch.Close()

	greet := func(arg any) { fmt.Println("hello,", arg) }
	for _, name := range []string{"alice", "bob", "carol"} {
		if err := ch.Dispatch(greet, name, false); err != nil {
			fmt.Println(err)
			return
		}
	}

	if err := ch.InvokeAll(); err != nil {
		fmt.Println(err)
	}

	// Output:
	// hello, alice
	// hello, bob
	// hello, carol
}

// ExampleChannel_Probe shows the usable capacity: one slot always stays
// empty.
func ExampleChannel_Probe() {
	ch, _ := callq.NewChannel(4)
	defer ch.Close()

	queued := 0
	for ch.Probe() == nil {
		_ = ch.Dispatch(func(any) {}, nil, false)
		queued++
	}
	fmt.Println("queued:", queued)
	fmt.Println("full:", callq.IsWouldBlock(ch.Probe()))

	// Output:
	// queued: 3
	// full: true
}

// ExampleChannel_Notify batches dispatches behind a single wakeup.
func ExampleChannel_Notify() {
	ch, _ := callq.New(16).Pipe().Build()
	defer ch.Close()

	sum := 0
	add := func(arg any) { sum += arg.(int) }
	for i := 1; i <= 10; i++ {
		_ = ch.Dispatch(add, i, true)
	}
	_ = ch.Notify()

	_ = ch.InvokeAll()
	fmt.Println("sum:", sum)
	fmt.Println("pending:", ch.Pending())

	// Output:
	// sum: 55
	// pending: 0
}

// ExampleRing uses the ring on its own, without a descriptor.
func ExampleRing() {
	q, _ := callq.NewRing[string](4)

	n, prior := q.Put([]string{"a", "b", "c", "d"})
	fmt.Println("put:", n, "prior:", prior)

	q.Execute(func(s *string) { fmt.Println(*s) })

	// Output:
	// put: 3 prior: 0
	// a
	// b
	// c
}
