// Package feather is a synchronous HTTP/1.x web framework. Connections are served by a
// pool of workers or by a goroutine each, and requests go through global middlewares
// first and through the first accepting route then.
package feather

import (
	"context"
	"net"
	"runtime"
	"sync"

	"github.com/indigo-web/feather/appctx"
	"github.com/indigo-web/feather/config"
	"github.com/indigo-web/feather/http/method"
	"github.com/indigo-web/feather/internal/metrics"
	"github.com/indigo-web/feather/internal/pool"
	httpserver "github.com/indigo-web/feather/internal/server/http"
	"github.com/indigo-web/feather/internal/server/tcp"
	"github.com/indigo-web/feather/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

type mount struct {
	prefix string
	router *router.Router
}

// App is the application builder. Middlewares and routes must be registered before
// Serve is called, as the routing table is fixed at start.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	ctx        *appctx.Context
	middleware []router.Middleware
	mounts     []mount
	onError    router.ErrorHandler
	onStart    func(addr net.Addr)
	onStop     func()

	mu       sync.Mutex
	acceptor *tcp.Acceptor
	stopOnce sync.Once
	done     chan struct{}
}

// New returns a new App instance with default config.
func New() *App {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &App{
		cfg:      config.Default(),
		registry: registry,
		metrics:  metrics.New(registry),
		ctx:      appctx.New(),
		done:     make(chan struct{}),
	}
}

// Tune replaces the config.
func (a *App) Tune(cfg *config.Config) *App {
	a.cfg = cfg
	return a
}

// Config returns the current config. It's safe to modify it until the app is started.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Logger replaces the default production logger.
func (a *App) Logger(logger *zap.Logger) *App {
	a.logger = logger
	return a
}

// Registry returns the Prometheus registry holding the engine metrics. It's usually
// passed to middleware.Metrics.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// Context returns the application context shared by all middlewares.
func (a *App) Context() *appctx.Context {
	return a.ctx
}

// Use adds global middlewares. They're run for every request in the order of
// registration, before routes are matched.
func (a *App) Use(middlewares ...router.Middleware) *App {
	a.middleware = append(a.middleware, middlewares...)
	return a
}

// Route registers the handler for the method and the path pattern.
func (a *App) Route(m method.Method, path string, handler router.Middleware) *App {
	return a.Mount("", router.New("").Route(m, path, handler))
}

func (a *App) Get(path string, handler router.Middleware) *App {
	return a.Route(method.GET, path, handler)
}

func (a *App) Head(path string, handler router.Middleware) *App {
	return a.Route(method.HEAD, path, handler)
}

func (a *App) Post(path string, handler router.Middleware) *App {
	return a.Route(method.POST, path, handler)
}

func (a *App) Put(path string, handler router.Middleware) *App {
	return a.Route(method.PUT, path, handler)
}

func (a *App) Delete(path string, handler router.Middleware) *App {
	return a.Route(method.DELETE, path, handler)
}

func (a *App) Patch(path string, handler router.Middleware) *App {
	return a.Route(method.PATCH, path, handler)
}

func (a *App) Options(path string, handler router.Middleware) *App {
	return a.Route(method.OPTIONS, path, handler)
}

// Mount adds all the routes of the router, prepending the prefix to their paths. Routes
// are flattened only when the app starts, so the router may be still filled after
// the call.
func (a *App) Mount(prefix string, r *router.Router) *App {
	a.mounts = append(a.mounts, mount{prefix: prefix, router: r})
	return a
}

// OnError sets the handler of errors returned by middlewares. Without it, errors are
// logged and answered with 500 Internal Server Error.
func (a *App) OnError(handler router.ErrorHandler) *App {
	a.onError = handler
	return a
}

// NotifyOnStart calls the callback as soon as the listener is bound.
func (a *App) NotifyOnStart(cb func(addr net.Addr)) *App {
	a.onStart = cb
	return a
}

// NotifyOnStop calls the callback after all the connections were served and the
// workers exited.
func (a *App) NotifyOnStop(cb func()) *App {
	a.onStop = cb
	return a
}

// Dispatcher returns the service the engine feeds requests to.
func (a *App) Dispatcher() *router.Dispatcher {
	var routes []router.Route
	for _, m := range a.mounts {
		routes = append(routes, m.router.Routes(m.prefix)...)
	}

	return router.NewDispatcher(a.middleware, routes, a.ctx, a.onError, a.getLogger().Named("router"))
}

// Listen serves at the address until Stop is called.
func (a *App) Listen(addr string) error {
	a.cfg.NET.Addr = addr
	return a.Serve(context.Background())
}

// Serve binds the configured address and serves until the context is done or Stop is
// called. Connections being served at the moment are finished before the method returns.
func (a *App) Serve(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	logger := a.getLogger()
	defer func() {
		_ = logger.Sync()
	}()

	listener, err := tcp.Bind(ctx, a.cfg.NET)
	if err != nil {
		return err
	}

	var (
		executor tcp.Executor
		workers  *pool.Pool
	)

	switch a.cfg.Engine.Model {
	case config.ModelPool:
		workers = pool.New(a.cfg.Pool, logger.Named("pool"), a.metrics)
		executor = workers
	case config.ModelGoroutine:
		applyCoroutine(a.cfg.Engine.Coroutine, logger)
	}

	handler := httpserver.New(a.cfg, a.Dispatcher(), logger.Named("http"), a.metrics)
	acceptor := tcp.New(listener, a.cfg.NET, handler.Serve, executor, logger.Named("tcp"), a.metrics)

	a.mu.Lock()
	a.acceptor = acceptor
	a.mu.Unlock()

	logger.Info("listening",
		zap.Stringer("addr", acceptor.Addr()),
		zap.String("model", string(a.cfg.Engine.Model)),
	)

	if a.onStart != nil {
		a.onStart(acceptor.Addr())
	}

	var runErr, stopErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		runErr = acceptor.Run()
		return runErr
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-a.done:
		}

		stopErr = acceptor.Stop()
		return stopErr
	})
	_ = g.Wait()

	acceptor.Wait()
	if workers != nil {
		workers.Close()
	}

	logger.Info("stopped")
	if a.onStop != nil {
		a.onStop()
	}

	return multierr.Combine(runErr, stopErr)
}

// Stop makes Serve stop accepting new connections and return once the current ones
// are served. Safe to be called multiple times and before Serve.
func (a *App) Stop() {
	a.stopOnce.Do(func() {
		close(a.done)
	})
}

// Addr returns the address the app listens at, or nil if it isn't started yet.
func (a *App) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.acceptor == nil {
		return nil
	}

	return a.acceptor.Addr()
}

func (a *App) getLogger() *zap.Logger {
	if a.logger == nil {
		a.logger = newLogger(a.cfg.Log)
	}

	return a.logger
}

func newLogger(cfg config.Log) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if level, err := zapcore.ParseLevel(cfg.Level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}

	return logger.Named("feather")
}

// applyCoroutine bounds the scheduler threads. The stack size is only reported: goroutine
// stacks grow on demand, and the runtime's max stack limit is process-wide and fatal
// when exceeded.
func applyCoroutine(cfg config.Coroutine, logger *zap.Logger) {
	if cfg.Threads > 0 {
		runtime.GOMAXPROCS(cfg.Threads)
	}

	if cfg.StackSize > 0 {
		logger.Info("coroutine stack size is ignored, goroutine stacks grow on demand",
			zap.Int("stack_size", cfg.StackSize))
	}
}
