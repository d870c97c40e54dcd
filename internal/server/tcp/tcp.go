// Package tcp owns the listening socket and hands accepted connections over to an
// executor.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/indigo-web/feather/config"
	"github.com/indigo-web/feather/internal/metrics"
	"github.com/indigo-web/feather/internal/pool"
	"go.uber.org/zap"
)

// OnConn serves the connection. Returning true means the connection was taken over
// and must not be closed.
type OnConn func(conn net.Conn) (consumed bool)

// Executor runs connection tasks. A nil executor means a goroutine per connection.
type Executor interface {
	Submit(task pool.Task) error
}

// Bind creates a listener with tuned socket options.
func Bind(ctx context.Context, cfg config.NET) (*net.TCPListener, error) {
	lc := net.ListenConfig{Control: control(cfg)}

	l, err := lc.Listen(ctx, "tcp", cfg.Addr)
	if err != nil {
		return nil, err
	}

	tcpl, ok := l.(*net.TCPListener)
	if !ok {
		_ = l.Close()
		return nil, fmt.Errorf("unexpected listener type %T", l)
	}

	return tcpl, nil
}

type Acceptor struct {
	cfg      config.NET
	listener *net.TCPListener
	onConn   OnConn
	executor Executor
	logger   *zap.Logger
	metrics  *metrics.Metrics
	stop     atomic.Bool
	wg       sync.WaitGroup
}

func New(
	listener *net.TCPListener,
	cfg config.NET,
	onConn OnConn,
	executor Executor,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Acceptor {
	if logger == nil {
		logger = zap.NewNop()
	}

	if m == nil {
		m = metrics.Nop()
	}

	return &Acceptor{
		cfg:      cfg,
		listener: listener,
		onConn:   onConn,
		executor: executor,
		logger:   logger,
		metrics:  m,
	}
}

func (a *Acceptor) Addr() net.Addr {
	return a.listener.Addr()
}

// Run accepts connections until Stop is called. The listener deadline is refreshed
// periodically, so the stop flag is noticed even if no connections arrive.
func (a *Acceptor) Run() error {
	for !a.stop.Load() {
		err := a.listener.SetDeadline(time.Now().Add(a.cfg.AcceptLoopInterruptPeriod))
		if err != nil {
			if a.stop.Load() {
				break
			}

			return err
		}

		conn, err := a.listener.AcceptTCP()
		if err != nil {
			switch {
			case a.stop.Load():
				return nil
			case errors.Is(err, os.ErrDeadlineExceeded):
				continue
			case errors.Is(err, net.ErrClosed):
				return err
			}

			a.metrics.AcceptErrors.Inc()
			a.logger.Warn("accept failed", zap.Error(err))
			continue
		}

		a.metrics.AcceptedConns.Inc()
		if err = conn.SetNoDelay(true); err != nil {
			a.logger.Debug("cannot set TCP_NODELAY", zap.Error(err))
		}

		a.dispatch(conn)
	}

	return nil
}

func (a *Acceptor) dispatch(conn net.Conn) {
	if a.executor == nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.serve(conn)
		}()

		return
	}

	if err := a.executor.Submit(func() { a.serve(conn) }); err != nil {
		a.logger.Warn("connection dropped", zap.Error(err))
		_ = conn.Close()
	}
}

func (a *Acceptor) serve(conn net.Conn) {
	a.metrics.OpenConns.Inc()
	consumed := false

	defer func() {
		a.metrics.OpenConns.Dec()

		if r := recover(); r != nil {
			a.logger.Error(
				"connection handler panicked",
				zap.Any("panic", r),
				zap.Stringer("remote", conn.RemoteAddr()),
			)
		}

		if !consumed {
			_ = conn.Close()
		}
	}()

	consumed = a.onConn(conn)
}

// Stop makes the accept loop exit and closes the listener. Connections being served
// aren't interrupted.
func (a *Acceptor) Stop() error {
	if a.stop.Swap(true) {
		return nil
	}

	return a.listener.Close()
}

// Wait blocks until all the connections served in their own goroutines are done.
func (a *Acceptor) Wait() {
	a.wg.Wait()
}
