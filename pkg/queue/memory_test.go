package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue(t *testing.T) {
	q := NewInMemoryQueue[string](2)

	require.NoError(t, q.Enqueue("connect"))
	require.NoError(t, q.Enqueue("disconnect"))
	assert.Error(t, q.Enqueue("overflow"))
	assert.Equal(t, 2, q.Size())

	item, err := q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, "connect", item)

	items, err := q.ReadAllMessages()
	require.NoError(t, err)
	assert.Equal(t, []string{"disconnect"}, items)

	_, err = q.Dequeue()
	assert.Error(t, err)
}

func TestInMemoryQueue_ConcurrentEnqueue(t *testing.T) {
	q := NewInMemoryQueue[int](100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, q.Enqueue(i))
		}(i)
	}
	wg.Wait()

	items, err := q.ReadAllMessages()
	require.NoError(t, err)
	assert.Len(t, items, 100)

	q.ClearQueue()
	assert.Equal(t, 0, q.Size())
}
