package router

import (
	"github.com/indigo-web/feather/appctx"
	"github.com/indigo-web/feather/http"
	"github.com/indigo-web/feather/http/status"
	"github.com/indigo-web/feather/service"
	"go.uber.org/zap"
)

var _ service.Service = new(Dispatcher)

// ErrorHandler is called with the error returned by a middleware. The response is sent
// as the handler left it.
type ErrorHandler func(err error, req *http.Request, resp *http.Response)

// Dispatcher runs global middlewares and then matches routes in their registration
// order. Both lists are read-only once serving started.
type Dispatcher struct {
	middleware []Middleware
	routes     []Route
	ctx        *appctx.Context
	onError    ErrorHandler
	logger     *zap.Logger
}

func NewDispatcher(
	middleware []Middleware,
	routes []Route,
	ctx *appctx.Context,
	onError ErrorHandler,
	logger *zap.Logger,
) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	if ctx == nil {
		ctx = appctx.New()
	}

	return &Dispatcher{
		middleware: middleware,
		routes:     routes,
		ctx:        ctx,
		onError:    onError,
		logger:     logger,
	}
}

func (d *Dispatcher) Handle(req *http.Request) (service.Result, error) {
	resp := http.NewResponse()

global:
	for _, mw := range d.middleware {
		result, err := mw.Handle(req, resp, d.ctx)
		switch {
		case req.Hijacked():
			return service.Consumed(), nil
		case err != nil:
			return d.fail(err, req, resp), nil
		}

		switch result {
		case Next:
		case NextRoute:
			break global
		default:
			return service.Response(resp), nil
		}
	}

	for _, route := range d.routes {
		if route.Method != req.Method || !route.Match(req.Path, req.Params) {
			continue
		}

		result, err := route.Middleware.Handle(req, resp, d.ctx)
		switch {
		case req.Hijacked():
			return service.Consumed(), nil
		case err != nil:
			return d.fail(err, req, resp), nil
		case result == NextRoute:
			continue
		}

		return service.Response(resp), nil
	}

	resp.Code(status.NotFound).String("404 Not Found")
	return service.Response(resp), nil
}

func (d *Dispatcher) fail(err error, req *http.Request, resp *http.Response) service.Result {
	if d.onError != nil {
		d.onError(err, req, resp)
		return service.Response(resp)
	}

	d.logger.Error(
		"middleware failed",
		zap.Error(err),
		zap.Stringer("method", req.Method),
		zap.String("path", req.Path),
	)
	resp.Code(status.InternalServerError).String("Internal Server Error!")

	return service.Response(resp)
}
