package sequence

import "sync"

// FIFO is a thread-safe first-in-first-out queue. Producers may enqueue from
// any goroutine; the consumer drains the whole queue in arrival order.
type FIFO[T any] struct {
	mu    sync.Mutex
	items []T
}

func NewFIFO[T any]() *FIFO[T] {
	return &FIFO[T]{}
}

func (q *FIFO[T]) Enqueue(value T) {
	q.mu.Lock()
	q.items = append(q.items, value)
	q.mu.Unlock()
}

func (q *FIFO[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain swaps the queue's internal buffer with buf and returns all queued
// items. Passing the previous result back in reuses its capacity, so a
// consumer draining in a loop settles into zero allocations.
func (q *FIFO[T]) Drain(buf []T) []T {
	buf = buf[:0]
	q.mu.Lock()
	q.items, buf = buf, q.items
	q.mu.Unlock()
	return buf
}
