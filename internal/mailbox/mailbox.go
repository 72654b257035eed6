// Package mailbox is the ordered hand-off between a run's background
// goroutine and the interactive loop: FIFO, enqueue never blocks, and the
// consumer drains on its own schedule.
package mailbox

import (
	"context"
	"sync"
)

type Mailbox[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	dropped  int
	ready    chan struct{}
}

// New returns an unbounded mailbox.
func New[T any]() *Mailbox[T] {
	return NewBounded[T](0)
}

// NewBounded returns a mailbox that holds at most capacity pending items.
// Posts beyond that are dropped and counted. capacity <= 0 means unbounded.
func NewBounded[T any](capacity int) *Mailbox[T] {
	return &Mailbox[T]{
		capacity: capacity,
		ready:    make(chan struct{}, 1),
	}
}

// Post enqueues v. It reports false if v was dropped because the mailbox is
// full.
func (m *Mailbox[T]) Post(v T) bool {
	m.mu.Lock()
	if m.capacity > 0 && len(m.items) >= m.capacity {
		m.dropped++
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, v)
	m.mu.Unlock()
	m.signal()
	return true
}

// Push enqueues v even when the mailbox is at capacity.
func (m *Mailbox[T]) Push(v T) {
	m.mu.Lock()
	m.items = append(m.items, v)
	m.mu.Unlock()
	m.signal()
}

func (m *Mailbox[T]) signal() {
	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// Drain removes and returns everything pending, oldest first, along with
// the number of posts dropped since the previous drain.
func (m *Mailbox[T]) Drain() ([]T, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.items
	m.items = nil
	dropped := m.dropped
	m.dropped = 0
	return items, dropped
}

func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Ready is signalled after a successful Post or Push. A single signal may cover
// several posts, so consumers must Drain rather than count signals.
func (m *Mailbox[T]) Ready() <-chan struct{} {
	return m.ready
}

// Wait blocks until an item is pending or ctx is done.
func (m *Mailbox[T]) Wait(ctx context.Context) error {
	for {
		if m.Len() > 0 {
			return nil
		}
		select {
		case <-m.ready:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
