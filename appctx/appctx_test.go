package appctx

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type counter struct {
	hits int
}

func TestContext(t *testing.T) {
	t.Run("keyed by static type", func(t *testing.T) {
		c := New()
		Insert(c, 5)
		Insert(c, "hello")
		Insert[any](c, 3.14)

		i, found := Get[int](c)
		require.True(t, found)
		require.Equal(t, 5, i)

		str := MustGet[string](c)
		require.Equal(t, "hello", str)

		_, found = Get[float64](c)
		require.False(t, found, "value inserted as any must not be visible as float64")
		require.Equal(t, 3, c.Len())
	})

	t.Run("replace and remove", func(t *testing.T) {
		c := New()
		Insert(c, 1)
		Insert(c, 2)
		require.Equal(t, 2, MustGet[int](c))

		v, found := Remove[int](c)
		require.True(t, found)
		require.Equal(t, 2, v)

		_, found = Get[int](c)
		require.False(t, found)
		require.Panics(t, func() {
			MustGet[int](c)
		})
	})

	t.Run("state", func(t *testing.T) {
		c := New()
		Insert(c, NewState(counter{}))

		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				MustGet[*State[counter]](c).With(func(value *counter) {
					value.hits++
				})
			}()
		}
		wg.Wait()

		require.Equal(t, 50, MustGet[*State[counter]](c).Load().hits)
	})
}
