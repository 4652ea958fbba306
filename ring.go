// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package callq

import "code.hybscloud.com/atomix"

// Ring is a fixed-capacity single-producer single-consumer ring buffer.
//
// Both cursors are kept modulo the capacity. One slot always stays empty so
// that full and empty can be told apart from the cursors alone, so a ring of
// capacity n holds at most n-1 elements.
//
// count tracks the number of elements put but not yet taken. The producer
// adds to it on Put and the consumer subtracts on Get and Execute. The value
// returned by Put is the count before the add; zero means the consumer had
// taken everything that existed before this batch.
//
// Exactly one goroutine may call Put. Exactly one goroutine may call Get or
// Execute. Violating this is undefined behavior and is not detected.
type Ring[T any] struct {
	_      pad
	write  atomix.Uint64 // Producer-owned
	_      pad
	read   atomix.Uint64 // Consumer-owned
	_      pad
	count  atomix.Uint64
	_      pad
	buffer []T
	mask   uint64
}

// NewRing creates a ring with the given capacity.
// Returns ErrInvalidCapacity unless capacity is a power of two and >= 2.
func NewRing[T any](capacity int) (*Ring[T], error) {
	if !isPow2(capacity) {
		return nil, ErrInvalidCapacity
	}
	n := uint64(capacity)
	return &Ring[T]{
		buffer: make([]T, n),
		mask:   n - 1,
	}, nil
}

// Put writes as many of items as fit (producer only).
//
// Returns the number written and the element count observed immediately
// before them. A short or zero write means the ring is full.
func (q *Ring[T]) Put(items []T) (n int, prior uint64) {
	w := q.write.LoadRelaxed()
	r := q.read.LoadAcquire()
	for n < len(items) {
		next := (w + 1) & q.mask
		if next == r {
			break
		}
		q.buffer[w] = items[n]
		w = next
		n++
	}
	prior = q.count.AddAcqRel(uint64(n)) - uint64(n)
	// Slot writes above happen-before this store.
	q.write.StoreRelease(w)
	return n, prior
}

// Get moves up to len(dst) elements into dst (consumer only).
// Returns the number moved and the element count after removing them.
func (q *Ring[T]) Get(dst []T) (n int, remaining uint64) {
	r := q.read.LoadRelaxed()
	w := q.write.LoadAcquire()
	var zero T
	for n < len(dst) && r != w {
		dst[n] = q.buffer[r]
		q.buffer[r] = zero
		r = (r + 1) & q.mask
		n++
	}
	remaining = q.count.AddAcqRel(^uint64(n - 1))
	q.read.StoreRelease(r)
	return n, remaining
}

// Execute visits every element published at the time of the call, in FIFO
// order, and consumes it (consumer only).
//
// Returns the number visited and the element count afterwards. The count may
// be non-zero when the producer is between counting a new element and
// publishing it.
//
// If visit panics, the element being visited and all before it are consumed
// and their slots cleared before the panic propagates.
func (q *Ring[T]) Execute(visit func(*T)) (n int, remaining uint64) {
	r := q.read.LoadRelaxed()
	w := q.write.LoadAcquire()
	if r == w {
		return 0, q.count.LoadAcquire()
	}
	var zero T
	var slot *T
	consumed := 0
	defer func() {
		if slot != nil {
			*slot = zero // visit panicked
		}
		remaining = q.count.AddAcqRel(^uint64(consumed - 1))
		q.read.StoreRelease(r)
	}()
	for r != w {
		slot = &q.buffer[r]
		r = (r + 1) & q.mask
		consumed++
		visit(slot)
		*slot = zero
		slot = nil
	}
	return consumed, 0
}

// FreeCount returns the number of elements that can be put before the ring
// is full.
func (q *Ring[T]) FreeCount() uint64 {
	w := q.write.LoadAcquire()
	r := q.read.LoadAcquire()
	return (r - w - 1) & q.mask
}

// Len returns the element count. Diagnostic only; the value may be stale by
// the time it is used.
func (q *Ring[T]) Len() uint64 {
	return q.count.LoadAcquire()
}

// Cap returns the ring capacity. At most Cap()-1 elements fit.
func (q *Ring[T]) Cap() int {
	return int(q.mask + 1)
}

func isPow2(n int) bool {
	return n >= 2 && n&(n-1) == 0
}
