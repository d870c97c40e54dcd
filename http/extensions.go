package http

import "reflect"

// Extensions is a typed attachment slot. Each value is stored under its static type,
// so there's at most one value per type.
type Extensions map[reflect.Type]any

// SetExtension attaches the value to the request, replacing the previous value of the same type.
func SetExtension[T any](r *Request, value T) {
	if r.Extensions == nil {
		r.Extensions = make(Extensions)
	}

	r.Extensions[reflect.TypeFor[T]()] = value
}

// Extension returns the value of type T attached to the request.
func Extension[T any](r *Request) (value T, found bool) {
	v, found := r.Extensions[reflect.TypeFor[T]()]
	if !found {
		return value, false
	}

	return v.(T), true
}
