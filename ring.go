// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iterq

// initialSlots is the slot count of an unbounded ring before it grows.
const initialSlots = 16

// ring is a FIFO ring buffer with an optional item limit.
//
// Slot count is always a power of 2 so positions map to slots with a mask.
// When limit is 0 the ring doubles whenever it runs out of slots; otherwise
// it grows up to the power of 2 covering limit and refuses items beyond
// limit itself.
//
// ring has no synchronization of its own. The owning Queue serializes all
// access under its mutex.
type ring[T any] struct {
	buffer []T
	head   uint64 // Next position to dequeue
	tail   uint64 // Next position to enqueue
	mask   uint64
	limit  int // 0 = unbounded
}

func newRing[T any](limit int) *ring[T] {
	n := initialSlots
	if limit > 0 && limit < n {
		n = roundToPow2(limit)
	}
	return &ring[T]{
		buffer: make([]T, n),
		mask:   uint64(n - 1),
		limit:  limit,
	}
}

// len returns the number of buffered items.
func (r *ring[T]) len() int {
	return int(r.tail - r.head)
}

// full reports whether the ring holds limit items.
func (r *ring[T]) full() bool {
	return r.limit > 0 && r.len() >= r.limit
}

// enqueue appends elem. Returns false if the ring is full.
func (r *ring[T]) enqueue(elem T) bool {
	if r.full() {
		return false
	}
	if r.tail-r.head > r.mask {
		r.grow()
	}
	r.buffer[r.tail&r.mask] = elem
	r.tail++
	return true
}

// dequeue removes and returns the head item. Returns false if empty.
// The vacated slot is cleared to release references for the GC.
func (r *ring[T]) dequeue() (T, bool) {
	var zero T
	if r.head == r.tail {
		return zero, false
	}
	slot := &r.buffer[r.head&r.mask]
	elem := *slot
	*slot = zero
	r.head++
	return elem, true
}

// grow doubles the slot count, keeping items in FIFO order.
func (r *ring[T]) grow() {
	n := len(r.buffer) * 2
	buffer := make([]T, n)
	count := r.len()
	for i := range count {
		buffer[i] = r.buffer[(r.head+uint64(i))&r.mask]
	}
	r.buffer = buffer
	r.mask = uint64(n - 1)
	r.head = 0
	r.tail = uint64(count)
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
