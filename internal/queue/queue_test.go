package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBlocking(t *testing.T) {
	t.Run("fifo", func(t *testing.T) {
		q := New[int](4)
		for i := range 100 {
			q.Push(i)
		}
		require.Equal(t, 100, q.Len())

		for i := range 100 {
			item, ok := q.Pop()
			require.True(t, ok)
			require.Equal(t, i, item)
		}
		require.Zero(t, q.Len())
	})

	t.Run("fifo interleaved", func(t *testing.T) {
		q := New[int](2)
		next := 0
		for i := range 50 {
			q.Push(i * 2)
			q.Push(i*2 + 1)
			item, ok := q.Pop()
			require.True(t, ok)
			require.Equal(t, next, item)
			next++
		}

		for q.Len() > 0 {
			item, _ := q.Pop()
			require.Equal(t, next, item)
			next++
		}
		require.Equal(t, 100, next)
	})

	t.Run("blocks until push", func(t *testing.T) {
		q := New[string](0)
		result := make(chan string)
		go func() {
			item, _ := q.Pop()
			result <- item
		}()

		select {
		case <-result:
			t.Fatal("pop returned on empty queue")
		case <-time.After(50 * time.Millisecond):
		}

		q.Push("hello")
		require.Equal(t, "hello", <-result)
	})

	t.Run("unblock releases one waiter", func(t *testing.T) {
		q := New[int](0)
		var (
			wg       sync.WaitGroup
			released = make(chan bool, 2)
		)

		for range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, ok := q.Pop()
				released <- ok
			}()
		}

		q.Unblock()
		require.False(t, <-released)

		select {
		case <-released:
			t.Fatal("single unblock released two waiters")
		case <-time.After(50 * time.Millisecond):
		}

		q.Unblock()
		require.False(t, <-released)
		wg.Wait()
	})

	t.Run("pop timeout", func(t *testing.T) {
		q := New[int](0)
		start := time.Now()
		_, status := q.PopTimeout(30 * time.Millisecond)
		require.Equal(t, TimedOut, status)
		require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

		q.Push(5)
		item, status := q.PopTimeout(time.Second)
		require.Equal(t, Item, status)
		require.Equal(t, 5, item)

		q.Unblock()
		_, status = q.PopTimeout(time.Second)
		require.Equal(t, Unblocked, status)

		go func() {
			time.Sleep(20 * time.Millisecond)
			q.Push(6)
		}()
		item, status = q.PopTimeout(time.Second)
		require.Equal(t, Item, status)
		require.Equal(t, 6, item)
	})
}
