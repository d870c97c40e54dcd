// Package queue implements an unbounded blocking FIFO used to hand work over from
// producers to a set of consumers.
package queue

import (
	"sync"
	"time"
)

type PopStatus uint8

const (
	// Item means a value was popped.
	Item PopStatus = iota
	// Unblocked means the consumer met a sentinel pushed by Unblock.
	Unblocked
	// TimedOut means nothing arrived within the timeout.
	TimedOut
)

type entry[T any] struct {
	value    T
	sentinel bool
}

// Blocking is a mutex and condition variable guarded FIFO. Push never blocks. Each
// call to Unblock releases at most one consumer.
type Blocking[T any] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	entries []entry[T]
	head    int
}

func New[T any](capacity int) *Blocking[T] {
	q := &Blocking[T]{
		entries: make([]entry[T], 0, capacity),
	}
	q.cond = sync.NewCond(&q.mu)

	return q
}

// Push appends the item and wakes up one waiting consumer.
func (q *Blocking[T]) Push(item T) {
	q.push(entry[T]{value: item})
}

// Unblock enqueues a sentinel. The consumer popping it observes Unblocked.
func (q *Blocking[T]) Unblock() {
	q.push(entry[T]{sentinel: true})
}

func (q *Blocking[T]) push(e entry[T]) {
	q.mu.Lock()
	q.entries = append(q.entries, e)
	q.mu.Unlock()
	q.cond.Signal()
}

// Pop blocks until an item or a sentinel is available. False is returned on sentinel.
func (q *Blocking[T]) Pop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.empty() {
		q.cond.Wait()
	}

	e := q.take()
	return e.value, !e.sentinel
}

// PopTimeout does the same as Pop does, but gives up after the timeout. Non-positive
// timeout means no waiting at all.
func (q *Blocking[T]) PopTimeout(timeout time.Duration) (item T, status PopStatus) {
	deadline := time.Now().Add(timeout)

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.empty() && timeout > 0 {
		// sync.Cond has no timed wait, so a timer wakes everyone up and each waiter
		// checks its own deadline.
		timer := time.AfterFunc(timeout, func() {
			q.mu.Lock()
			q.cond.Broadcast()
			q.mu.Unlock()
		})
		defer timer.Stop()

		for q.empty() && time.Now().Before(deadline) {
			q.cond.Wait()
		}
	}

	if q.empty() {
		return item, TimedOut
	}

	e := q.take()
	if e.sentinel {
		return item, Unblocked
	}

	return e.value, Item
}

// Len returns the number of queued entries, sentinels included.
func (q *Blocking[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries) - q.head
}

func (q *Blocking[T]) empty() bool {
	return q.head == len(q.entries)
}

func (q *Blocking[T]) take() entry[T] {
	e := q.entries[q.head]
	q.entries[q.head] = entry[T]{}
	q.head++

	if q.head == len(q.entries) {
		q.entries, q.head = q.entries[:0], 0
	} else if q.head > cap(q.entries)/2 {
		n := copy(q.entries, q.entries[q.head:])
		clear(q.entries[n:])
		q.entries, q.head = q.entries[:n], 0
	}

	return e
}
