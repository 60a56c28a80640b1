package queue

import (
	"fmt"
	"sync"
)

var _ Queue[int] = &InMemoryQueue[int]{}

// InMemoryQueue implements Queue over a buffered channel.
type InMemoryQueue[T any] struct {
	ch   chan T
	lock sync.Mutex
}

// NewInMemoryQueue creates a queue holding at most size items.
func NewInMemoryQueue[T any](size int) *InMemoryQueue[T] {
	return &InMemoryQueue[T]{
		ch: make(chan T, size),
	}
}

func (q *InMemoryQueue[T]) Enqueue(item T) error {
	select {
	case q.ch <- item:
		return nil
	default:
		return fmt.Errorf("queue is full (capacity %d)", cap(q.ch))
	}
}

func (q *InMemoryQueue[T]) Dequeue() (T, error) {
	select {
	case item := <-q.ch:
		return item, nil
	default:
		var zero T
		return zero, fmt.Errorf("queue is empty")
	}
}

func (q *InMemoryQueue[T]) Size() int {
	return len(q.ch)
}

// ReadAllMessages drains the items that were pending when it was called.
// Items enqueued concurrently are left for the next call.
func (q *InMemoryQueue[T]) ReadAllMessages() ([]T, error) {
	q.lock.Lock()
	defer q.lock.Unlock()

	n := len(q.ch)
	items := make([]T, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, <-q.ch)
	}

	return items, nil
}

func (q *InMemoryQueue[T]) ClearQueue() {
	q.lock.Lock()
	defer q.lock.Unlock()

	for len(q.ch) > 0 {
		<-q.ch
	}
}
