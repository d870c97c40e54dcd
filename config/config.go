package config

import (
	"errors"
	"fmt"
	"time"
)

// Model is the concurrency model connections are served in.
type Model string

const (
	// ModelPool serves connections on a dynamically sized worker pool, fed through a
	// blocking queue.
	ModelPool Model = "pool"
	// ModelGoroutine serves each connection in its own goroutine.
	ModelGoroutine Model = "goroutine"
)

type (
	Headers struct {
		// MaxNumber limits how many header fields a single request may carry. Exceeding
		// it results in 400 Bad Request.
		MaxNumber int `toml:"max_number"`
	}

	Body struct {
		// MaxSize limits both the header block and the body of a request. Exceeding it
		// results in 413 and closed connection.
		MaxSize int `toml:"max_size"`
	}

	NET struct {
		// Addr is the address to listen at.
		Addr string `toml:"addr"`
		// ReadBufferSize is the initial size of a per-connection buffer to read into.
		ReadBufferSize int `toml:"read_buffer_size"`
		// ReadTimeout is applied to every read from a connection. It thereby also limits
		// how long an idle keep-alive connection lives.
		ReadTimeout time.Duration `toml:"read_timeout"`
		// WriteTimeout is applied to every response write.
		WriteTimeout time.Duration `toml:"write_timeout"`
		// AcceptLoopInterruptPeriod controls how often will the Accept() call be interrupted
		// in order to check whether it's time to stop.
		AcceptLoopInterruptPeriod time.Duration `toml:"accept_loop_interrupt_period"`
		// SocketReadBuffer and SocketWriteBuffer set the kernel socket buffer sizes
		// (SO_RCVBUF and SO_SNDBUF). Zero leaves the system default.
		SocketReadBuffer  int `toml:"socket_read_buffer"`
		SocketWriteBuffer int `toml:"socket_write_buffer"`
	}

	Coroutine struct {
		// Threads bounds the number of OS threads executing goroutines simultaneously
		// (GOMAXPROCS). Zero leaves the runtime default.
		Threads int `toml:"threads"`
		// StackSize is accepted for compatibility and only reported at start. Goroutine
		// stacks grow on demand, and the runtime's stack limit can't serve as a per-connection
		// ceiling: it's process-wide and exceeding it is fatal.
		StackSize int `toml:"stack_size"`
	}

	Engine struct {
		Model     Model     `toml:"model"`
		Coroutine Coroutine `toml:"coroutine"`
	}

	Pool struct {
		// MinWorkers are spawned at start and are never retired.
		MinWorkers int `toml:"min_workers"`
		// MaxWorkers bounds the number of connections served simultaneously.
		MaxWorkers int `toml:"max_workers"`
		// IdleTimeout is how long a worker above MinWorkers waits for a job before
		// retiring. Non-positive value disables retirement.
		IdleTimeout time.Duration `toml:"idle_timeout"`
		// QueueCapacity is the initial capacity of the job queue. The queue grows beyond
		// it if needed.
		QueueCapacity int `toml:"queue_capacity"`
	}

	Log struct {
		// Level is one of debug, info, warn, error.
		Level string `toml:"level"`
	}
)

// Config holds settings used across various parts of feather, mainly restrictions,
// limitations and tuning of the engine.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because most likely this will result in ambiguous errors.
type Config struct {
	Headers Headers `toml:"headers"`
	Body    Body    `toml:"body"`
	NET     NET     `toml:"net"`
	Engine  Engine  `toml:"engine"`
	Pool    Pool    `toml:"pool"`
	Log     Log     `toml:"log"`
}

// Default returns default config.
func Default() *Config {
	return &Config{
		Headers: Headers{
			MaxNumber: 64,
		},
		Body: Body{
			MaxSize: 8 * 1024,
		},
		NET: NET{
			Addr:                      "127.0.0.1:5050",
			ReadBufferSize:            4 * 1024,
			ReadTimeout:               30 * time.Second,
			WriteTimeout:              30 * time.Second,
			AcceptLoopInterruptPeriod: 5 * time.Second,
			SocketReadBuffer:          256 * 1024,
			SocketWriteBuffer:         256 * 1024,
		},
		Engine: Engine{
			Model: ModelPool,
		},
		Pool: Pool{
			MinWorkers:    6,
			MaxWorkers:    60,
			IdleTimeout:   30 * time.Second,
			QueueCapacity: 128,
		},
		Log: Log{
			Level: "info",
		},
	}
}

var ErrInvalid = errors.New("invalid config")

// Validate checks whether the settings are consistent.
func (c *Config) Validate() error {
	switch {
	case c.Engine.Model != ModelPool && c.Engine.Model != ModelGoroutine:
		return fmt.Errorf("%w: unknown engine model %q", ErrInvalid, c.Engine.Model)
	case c.Pool.MaxWorkers <= 0:
		return fmt.Errorf("%w: pool.max_workers must be positive", ErrInvalid)
	case c.Pool.MinWorkers < 0 || c.Pool.MinWorkers > c.Pool.MaxWorkers:
		return fmt.Errorf("%w: pool.min_workers must be within [0, max_workers]", ErrInvalid)
	case c.Body.MaxSize <= 0:
		return fmt.Errorf("%w: body.max_size must be positive", ErrInvalid)
	case c.Headers.MaxNumber <= 0:
		return fmt.Errorf("%w: headers.max_number must be positive", ErrInvalid)
	case c.NET.ReadBufferSize <= 0:
		return fmt.Errorf("%w: net.read_buffer_size must be positive", ErrInvalid)
	case c.NET.AcceptLoopInterruptPeriod <= 0:
		return fmt.Errorf("%w: net.accept_loop_interrupt_period must be positive", ErrInvalid)
	}

	return nil
}
