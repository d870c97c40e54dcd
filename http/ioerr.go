package http

import (
	"errors"
	"os"
	"syscall"
)

// IOErrorKind classifies socket errors for logging and metrics.
type IOErrorKind uint8

const (
	IOOther IOErrorKind = iota
	IOTimeout
	IOConnectionReset
	IOBrokenPipe
)

func (k IOErrorKind) String() string {
	switch k {
	case IOTimeout:
		return "timeout"
	case IOConnectionReset:
		return "connection reset"
	case IOBrokenPipe:
		return "broken pipe"
	default:
		return "other"
	}
}

func ClassifyIOError(err error) IOErrorKind {
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded):
		return IOTimeout
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.ECONNABORTED):
		return IOConnectionReset
	case errors.Is(err, syscall.EPIPE):
		return IOBrokenPipe
	}

	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return IOTimeout
	}

	return IOOther
}
