package router

import (
	"sync"
)

// growPercent is the fill level at which a GrowableBuffer doubles.
const growPercent = 70

// GrowableBuffer is an unbounded, thread-safe FIFO. Send never blocks; the
// ring doubles once it is growPercent full.
type GrowableBuffer[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	ring   []T
	head   int
	tail   int
	count  int
	closed bool

	enqueued  int64
	dequeued  int64
	discarded int64
	resizes   int
}

// BufferStats contains buffer statistics.
type BufferStats struct {
	Count     int
	Capacity  int
	Enqueued  int64
	Dequeued  int64
	Discarded int64
	Resizes   int
}

// NewGrowableBuffer creates a buffer with the given initial capacity.
func NewGrowableBuffer[T any](initialCapacity int) *GrowableBuffer[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	b := &GrowableBuffer[T]{
		ring: make([]T, initialCapacity),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Send appends item. Returns false if the buffer is closed.
func (b *GrowableBuffer[T]) Send(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	threshold := max(len(b.ring)*growPercent/100, 1)
	if b.count+1 >= threshold {
		b.grow()
	}

	b.ring[b.tail] = item
	b.tail = (b.tail + 1) % len(b.ring)
	b.count++
	b.enqueued++

	b.cond.Signal()
	return true
}

// Receive blocks until an item is available or the buffer is closed and
// empty, in which case ok is false.
func (b *GrowableBuffer[T]) Receive() (item T, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.count == 0 && !b.closed {
		b.cond.Wait()
	}
	if b.count == 0 {
		return item, false
	}
	return b.pop(), true
}

// TryReceive returns the next item without blocking.
func (b *GrowableBuffer[T]) TryReceive() (item T, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return item, false
	}
	return b.pop(), true
}

// DrainTo removes up to max items (all when max <= 0) and returns them.
func (b *GrowableBuffer[T]) DrainTo(max int) []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}

	n := b.count
	if max > 0 && max < n {
		n = max
	}

	out := make([]T, n)
	for i := range out {
		out[i] = b.pop()
	}
	return out
}

// Close stops accepting items. Receivers still get what is queued.
func (b *GrowableBuffer[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.cond.Broadcast()
}

// CloseAndDiscard closes the buffer and drops everything still queued.
// Returns the number of dropped items.
func (b *GrowableBuffer[T]) CloseAndDiscard() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	dropped := b.count
	var zero T
	for b.count > 0 {
		b.ring[b.head] = zero
		b.head = (b.head + 1) % len(b.ring)
		b.count--
	}
	b.discarded += int64(dropped)

	b.closed = true
	b.cond.Broadcast()
	return dropped
}

// Closed reports whether Close has been called.
func (b *GrowableBuffer[T]) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Len returns the number of queued items.
func (b *GrowableBuffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the current ring capacity.
func (b *GrowableBuffer[T]) Cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ring)
}

// Stats returns buffer statistics.
func (b *GrowableBuffer[T]) Stats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BufferStats{
		Count:     b.count,
		Capacity:  len(b.ring),
		Enqueued:  b.enqueued,
		Dequeued:  b.dequeued,
		Discarded: b.discarded,
		Resizes:   b.resizes,
	}
}

// pop removes the head item. Must be called with lock held and count > 0.
func (b *GrowableBuffer[T]) pop() T {
	var zero T
	item := b.ring[b.head]
	b.ring[b.head] = zero
	b.head = (b.head + 1) % len(b.ring)
	b.count--
	b.dequeued++
	return item
}

// grow doubles the ring. Must be called with lock held.
func (b *GrowableBuffer[T]) grow() {
	next := make([]T, len(b.ring)*2)

	if b.count > 0 {
		if b.head < b.tail {
			copy(next, b.ring[b.head:b.tail])
		} else {
			n := copy(next, b.ring[b.head:])
			copy(next[n:], b.ring[:b.tail])
		}
	}

	b.ring = next
	b.head = 0
	b.tail = b.count
	b.resizes++
}
