package router

import (
	"errors"
	"testing"

	"github.com/indigo-web/feather/appctx"
	"github.com/indigo-web/feather/http"
	"github.com/indigo-web/feather/http/method"
	"github.com/indigo-web/feather/http/status"
	"github.com/indigo-web/feather/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newRequest(m method.Method, path string) *http.Request {
	req := http.NewRequest(nil)
	req.Method = m
	req.Path = path
	return req
}

func text(body string) Middleware {
	return Func(func(_ *http.Request, resp *http.Response, _ *appctx.Context) (Result, error) {
		return FinishText(resp, body)
	})
}

func returning(result Result, trace *[]string, name string) Middleware {
	return Func(func(*http.Request, *http.Response, *appctx.Context) (Result, error) {
		*trace = append(*trace, name)
		return result, nil
	})
}

func dispatch(t *testing.T, d *Dispatcher, req *http.Request) *http.Response {
	t.Helper()
	result, err := d.Handle(req)
	require.NoError(t, err)
	require.Equal(t, service.KindResponse, result.Kind)
	return result.Response
}

func TestDispatcher(t *testing.T) {
	t.Run("route fallback", func(t *testing.T) {
		var trace []string
		routes := []Route{
			NewRoute(method.GET, "/a", returning(NextRoute, &trace, "first")),
			NewRoute(method.GET, "/a", Func(func(_ *http.Request, resp *http.Response, _ *appctx.Context) (Result, error) {
				trace = append(trace, "second")
				return FinishText(resp, "second")
			})),
			NewRoute(method.GET, "/a", returning(End, &trace, "third")),
		}

		resp := dispatch(t, NewDispatcher(nil, routes, nil, nil, nil), newRequest(method.GET, "/a"))
		require.Equal(t, []string{"first", "second"}, trace)
		require.Equal(t, "second", string(resp.Body))
	})

	t.Run("all routes decline", func(t *testing.T) {
		var trace []string
		routes := []Route{
			NewRoute(method.GET, "/a", returning(NextRoute, &trace, "first")),
			NewRoute(method.POST, "/a", returning(End, &trace, "wrong method")),
		}

		resp := dispatch(t, NewDispatcher(nil, routes, nil, nil, nil), newRequest(method.GET, "/a"))
		require.Equal(t, []string{"first"}, trace)
		require.Equal(t, status.NotFound, resp.Status)
		require.Equal(t, "404 Not Found", string(resp.Body))
	})

	t.Run("dynamic segment", func(t *testing.T) {
		var id string
		routes := []Route{
			NewRoute(method.GET, "/user/:id", Func(func(req *http.Request, resp *http.Response, _ *appctx.Context) (Result, error) {
				id = req.Param("id")
				return FinishText(resp, "user "+id)
			})),
		}

		resp := dispatch(t, NewDispatcher(nil, routes, nil, nil, nil), newRequest(method.GET, "/user/42"))
		require.Equal(t, "42", id)
		require.Equal(t, "user 42", string(resp.Body))
	})

	t.Run("global phase", func(t *testing.T) {
		var trace []string
		routes := []Route{NewRoute(method.GET, "/", returning(Next, &trace, "route"))}

		d := NewDispatcher([]Middleware{
			returning(Next, &trace, "first"),
			returning(NextRoute, &trace, "second"),
			returning(Next, &trace, "skipped"),
		}, routes, nil, nil, nil)
		resp := dispatch(t, d, newRequest(method.GET, "/"))
		require.Equal(t, []string{"first", "second", "route"}, trace)
		require.Equal(t, status.OK, resp.Status)

		trace = nil
		d = NewDispatcher([]Middleware{
			returning(End, &trace, "terminal"),
			returning(Next, &trace, "skipped"),
		}, routes, nil, nil, nil)
		dispatch(t, d, newRequest(method.GET, "/"))
		require.Equal(t, []string{"terminal"}, trace)
	})

	t.Run("error without hook", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		routes := []Route{NewRoute(method.GET, "/", Func(func(*http.Request, *http.Response, *appctx.Context) (Result, error) {
			return End, errors.New("boom")
		}))}

		resp := dispatch(t, NewDispatcher(nil, routes, nil, nil, zap.New(core)), newRequest(method.GET, "/"))
		require.Equal(t, status.InternalServerError, resp.Status)
		require.Equal(t, "Internal Server Error!", string(resp.Body))
		require.Equal(t, 1, logs.Len())
	})

	t.Run("error hook", func(t *testing.T) {
		var hooked error
		onError := func(err error, req *http.Request, resp *http.Response) {
			hooked = err
			resp.Code(status.Teapot).String(req.Path)
		}
		global := []Middleware{Func(func(*http.Request, *http.Response, *appctx.Context) (Result, error) {
			return Next, errors.New("global")
		})}

		resp := dispatch(t, NewDispatcher(global, nil, nil, onError, nil), newRequest(method.GET, "/tea"))
		require.EqualError(t, hooked, "global")
		require.Equal(t, status.Teapot, resp.Status)
		require.Equal(t, "/tea", string(resp.Body))
	})

	t.Run("context is shared", func(t *testing.T) {
		ctx := appctx.New()
		appctx.Insert(ctx, appctx.NewState(0))
		routes := []Route{NewRoute(method.GET, "/", Func(func(_ *http.Request, resp *http.Response, ctx *appctx.Context) (Result, error) {
			appctx.MustGet[*appctx.State[int]](ctx).With(func(v *int) { *v++ })
			return End, nil
		}))}

		d := NewDispatcher(nil, routes, ctx, nil, nil)
		for range 3 {
			dispatch(t, d, newRequest(method.GET, "/"))
		}
		require.Equal(t, 3, appctx.MustGet[*appctx.State[int]](ctx).Load())
	})
}
