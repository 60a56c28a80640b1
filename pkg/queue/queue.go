package queue

// Queue is a FIFO used to hand work from network goroutines to the tick loop.
type Queue[T any] interface {
	// Enqueue adds an item to the end of the queue.
	// It returns an error instead of blocking when the queue is full.
	Enqueue(item T) error
	// Dequeue removes and returns the item at the front of the queue.
	Dequeue() (T, error)
	// Size returns the number of pending items.
	Size() int
	// ReadAllMessages drains and returns every pending item in order.
	ReadAllMessages() ([]T, error)
	// ClearQueue drops every pending item.
	ClearQueue()
}
