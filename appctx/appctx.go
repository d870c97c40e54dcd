// Package appctx provides the application-wide registry of shared values. Values are
// keyed by their static type, therefore there's at most one value per type. Registered
// values live as long as the application does and are never evicted implicitly.
package appctx

import (
	"reflect"
	"sync"
)

type Context struct {
	mu     sync.RWMutex
	values map[reflect.Type]any
}

func New() *Context {
	return &Context{
		values: make(map[reflect.Type]any),
	}
}

// Insert stores the value under the type T, replacing the previous one if present.
func Insert[T any](c *Context, value T) {
	c.mu.Lock()
	c.values[reflect.TypeFor[T]()] = value
	c.mu.Unlock()
}

// Get returns the value stored under the type T.
func Get[T any](c *Context) (value T, found bool) {
	c.mu.RLock()
	v, found := c.values[reflect.TypeFor[T]()]
	c.mu.RUnlock()
	if !found {
		return value, false
	}

	return v.(T), true
}

// MustGet does the same as Get does, but panics if no value of type T is stored.
func MustGet[T any](c *Context) T {
	value, found := Get[T](c)
	if !found {
		panic("appctx: no value of type " + reflect.TypeFor[T]().String())
	}

	return value
}

// Remove deletes the value stored under the type T and returns it.
func Remove[T any](c *Context, _ ...T) (value T, found bool) {
	key := reflect.TypeFor[T]()

	c.mu.Lock()
	v, found := c.values[key]
	delete(c.values, key)
	c.mu.Unlock()
	if !found {
		return value, false
	}

	return v.(T), true
}

// Len returns the number of stored values.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// State is a value guarded by its own mutex. It's intended to be stored in the Context
// as a pointer, so the registry lock is never held while the value is mutated.
type State[T any] struct {
	mu    sync.Mutex
	value T
}

func NewState[T any](value T) *State[T] {
	return &State[T]{value: value}
}

// With runs the fn exclusively, letting it modify the value in-place.
func (s *State[T]) With(fn func(value *T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.value)
}

// Load returns a copy of the current value.
func (s *State[T]) Load() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Store replaces the value.
func (s *State[T]) Store(value T) {
	s.mu.Lock()
	s.value = value
	s.mu.Unlock()
}
