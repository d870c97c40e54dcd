// Package router implements the application side of the engine: middleware, routes
// and the dispatcher deciding which of them handle a request.
package router

import (
	"github.com/indigo-web/feather/appctx"
	"github.com/indigo-web/feather/http"
	"github.com/indigo-web/feather/http/status"
)

// Result tells the dispatcher how to proceed after a middleware is done.
type Result uint8

const (
	// Next passes the request to the next middleware. Returned by a route handler, it
	// finishes the request same as End does.
	Next Result = iota
	// NextRoute skips the rest of the global middleware and jumps to route matching.
	// Returned by a route handler, it declines the request, so matching continues with
	// the following routes.
	NextRoute
	// End finishes the request, the response is sent as is.
	End
)

func (r Result) String() string {
	switch r {
	case Next:
		return "next"
	case NextRoute:
		return "next route"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

type Middleware interface {
	Handle(req *http.Request, resp *http.Response, ctx *appctx.Context) (Result, error)
}

// Func adapts an ordinary function to the Middleware interface.
type Func func(req *http.Request, resp *http.Response, ctx *appctx.Context) (Result, error)

func (f Func) Handle(req *http.Request, resp *http.Response, ctx *appctx.Context) (Result, error) {
	return f(req, resp, ctx)
}

type chain []Middleware

// Chain composes middlewares into a single one. They're run in order as long as each
// returns Next, otherwise the first different outcome is returned.
func Chain(middlewares ...Middleware) Middleware {
	if len(middlewares) == 1 {
		return middlewares[0]
	}

	return chain(middlewares)
}

func (c chain) Handle(req *http.Request, resp *http.Response, ctx *appctx.Context) (Result, error) {
	for _, mw := range c {
		result, err := mw.Handle(req, resp, ctx)
		if err != nil || result != Next {
			return result, err
		}
	}

	return Next, nil
}

// FinishText sets the plain text body and ends the request.
func FinishText(resp *http.Response, body string) (Result, error) {
	resp.String(body)
	return End, nil
}

// FinishHTML sets the html body and ends the request.
func FinishHTML(resp *http.Response, body string) (Result, error) {
	resp.HTML(body)
	return End, nil
}

// FinishBytes sets the binary body and ends the request.
func FinishBytes(resp *http.Response, body []byte) (Result, error) {
	resp.Bytes(body)
	return End, nil
}

// FinishJSON serializes the model into the body and ends the request. Serialization
// errors are returned as is.
func FinishJSON(resp *http.Response, model any) (Result, error) {
	if _, err := resp.TryJSON(model); err != nil {
		return End, err
	}

	return End, nil
}

// FinishFile sets the file contents as the body and ends the request. Files that cannot
// be served result in a corresponding error response rather than an error.
func FinishFile(resp *http.Response, path string) (Result, error) {
	resp.File(path)
	return End, nil
}

// FinishStatus sets the code with a plain text body and ends the request.
func FinishStatus(resp *http.Response, code status.Code, body string) (Result, error) {
	resp.Code(code).String(body)
	return End, nil
}
