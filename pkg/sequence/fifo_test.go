package sequence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFIFOOrder(t *testing.T) {
	q := NewFIFO[int]()
	for i := 0; i < 5; i++ {
		q.Enqueue(i)
	}
	require.Equal(t, 5, q.Len())

	got := q.Drain(nil)
	require.Equal(t, []int{0, 1, 2, 3, 4}, got)
	require.Equal(t, 0, q.Len())
}

func TestFIFODrainReusesBuffer(t *testing.T) {
	q := NewFIFO[string]()
	q.Enqueue("a")
	buf := q.Drain(nil)
	require.Equal(t, []string{"a"}, buf)

	q.Enqueue("b")
	q.Enqueue("c")
	buf = q.Drain(buf)
	require.Equal(t, []string{"b", "c"}, buf)

	require.Empty(t, q.Drain(buf))
}

func TestFIFOConcurrentEnqueue(t *testing.T) {
	q := NewFIFO[int]()
	var wg sync.WaitGroup
	const producers, perProducer = 8, 100
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(i)
			}
		}()
	}
	wg.Wait()
	require.Len(t, q.Drain(nil), producers*perProducer)
}
