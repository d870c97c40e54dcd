package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gobwas/ws"
	"github.com/indigo-web/feather"
	"github.com/indigo-web/feather/appctx"
	"github.com/indigo-web/feather/config"
	"github.com/indigo-web/feather/http"
	"github.com/indigo-web/feather/http/status"
	"github.com/indigo-web/feather/jwt"
	"github.com/indigo-web/feather/router"
	"github.com/indigo-web/feather/router/middleware"
	"github.com/indigo-web/feather/websocket"
	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

type options struct {
	configPath string
	addr       string
	model      string
	logLevel   string
	static     string
	jwtSecret  string
}

func (o *options) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.configPath, "config", "c", "", "Path to the TOML config file")
	fs.StringVar(&o.addr, "addr", "", "Address to listen at, overrides the config")
	fs.StringVar(&o.model, "model", "", "Concurrency model (pool or goroutine), overrides the config")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level, overrides the config")
	fs.StringVar(&o.static, "static", "./static", "Directory served under /static")
	fs.StringVar(&o.jwtSecret, "jwt-secret", "change-me", "Secret used to sign tokens")
}

func (o *options) config() (*config.Config, error) {
	cfg := config.Default()
	if len(o.configPath) > 0 {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}

	if len(o.addr) > 0 {
		cfg.NET.Addr = o.addr
	}
	if len(o.model) > 0 {
		cfg.Engine.Model = config.Model(o.model)
	}
	if len(o.logLevel) > 0 {
		cfg.Log.Level = o.logLevel
	}

	return cfg, cfg.Validate()
}

type visits = appctx.State[int]

func index(_ *http.Request, resp *http.Response, ctx *appctx.Context) (router.Result, error) {
	var n int
	appctx.MustGet[*visits](ctx).With(func(value *int) {
		*value++
		n = *value
	})

	return router.FinishHTML(resp, fmt.Sprintf("<h1>Hello from feather!</h1><p>visit #%d</p>", n))
}

func user(req *http.Request, resp *http.Response, _ *appctx.Context) (router.Result, error) {
	return router.FinishJSON(resp, map[string]string{"id": req.Param("id")})
}

func login(req *http.Request, resp *http.Response, ctx *appctx.Context) (router.Result, error) {
	var credentials struct {
		Username string `json:"username"`
	}

	if err := req.JSON(&credentials); err != nil || len(credentials.Username) == 0 {
		return router.FinishStatus(resp, status.BadRequest, "username is required")
	}

	token, err := appctx.MustGet[*jwt.Manager](ctx).GenerateSimple(credentials.Username, 24*time.Hour)
	if err != nil {
		return router.End, err
	}

	return router.FinishJSON(resp, map[string]string{"token": token})
}

func me(req *http.Request, resp *http.Response, _ *appctx.Context) (router.Result, error) {
	claims, _ := http.Extension[*jwt.SimpleClaims](req)
	return router.FinishJSON(resp, map[string]string{"user": claims.Subject})
}

func run(opts *options) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		logger = zap.NewNop()
	}
	defer func() {
		_ = logger.Sync()
	}()

	undo, err := maxprocs.Set(maxprocs.Logger(logger.Sugar().Infof))
	defer undo()
	if err != nil {
		logger.Warn("cannot set GOMAXPROCS", zap.Error(err))
	}

	app := feather.New().Tune(cfg).Logger(logger)
	appctx.Insert(app.Context(), appctx.NewState(0))
	appctx.Insert(app.Context(), jwt.NewManager(opts.jwtSecret, jwt.WithIssuer("feather-demo")))

	chat := websocket.NewSocket(logger.Named("chat"))
	chat.OnMessage(func(client *websocket.Client, op ws.OpCode, payload []byte) {
		if op != ws.OpText {
			return
		}

		if err := chat.Broadcast(client.ID.String() + ": " + string(payload)); err != nil {
			logger.Debug("broadcast failed", zap.Error(err))
		}
	})

	app.Use(
		middleware.WithRequestID(),
		middleware.Logger(logger.Named("access")),
		middleware.Cors(middleware.CorsOptions{Origins: []string{"*"}}),
		middleware.Metrics("/metrics", app.Registry()),
		middleware.Static("/static", opts.static, middleware.StaticOptions{
			CacheTTL:      time.Minute,
			CacheCapacity: 256,
		}),
	)

	app.Get("/", middleware.Recover(logger, router.Func(index)))
	app.Get("/ws", chat.Handler())

	api := router.New("/api")
	api.Get("/user/:id", router.Func(user))
	api.Post("/login", router.Func(login))
	api.Group("/private").
		Use(jwt.Required()).
		Get("/me", router.Func(me))
	app.Mount("", api)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Serve(ctx)
}

func main() {
	opts := new(options)
	fs := pflag.NewFlagSet("feather-demo", pflag.ExitOnError)
	opts.addFlags(fs)
	_ = fs.Parse(os.Args[1:])

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "feather-demo:", err)
		os.Exit(1)
	}
}
