package stream

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchBuffer(t *testing.T) {
	b := NewBatchBuffer[int](3)

	assert.Nil(t, b.GetAndClear())
	b.Add(1)
	b.Add(2)
	assert.Equal(t, 2, b.Size())
	assert.False(t, b.Full())

	b.Add(3)
	assert.True(t, b.Full())
	assert.Equal(t, []int{1, 2, 3}, b.GetAndClear())
	assert.Zero(t, b.Size())
}

func TestBatchBuffer_ConcurrentAdd(t *testing.T) {
	b := NewBatchBuffer[int](0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Add(i)
		}()
	}
	wg.Wait()

	assert.Len(t, b.GetAndClear(), 100)
}
