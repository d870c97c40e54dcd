package router

import (
	"testing"

	"github.com/indigo-web/feather/appctx"
	"github.com/indigo-web/feather/http"
	"github.com/indigo-web/feather/http/method"
	"github.com/stretchr/testify/require"
)

func TestRouter(t *testing.T) {
	t.Run("groups", func(t *testing.T) {
		var trace []string
		r := New("/api")
		r.Use(returning(Next, &trace, "api"))
		r.Get("/health", text("ok"))

		v1 := r.Group("/v1")
		v1.Get("/users/:id", text("user"))
		v1.Use(returning(Next, &trace, "v1"))
		r.Post("/login", text("login"))

		routes := r.Routes("")
		require.Len(t, routes, 3)
		require.Equal(t, "/api/health", routes[0].Pattern)
		require.Equal(t, "/api/v1/users/:id", routes[1].Pattern)
		require.Equal(t, "/api/login", routes[2].Pattern)
		require.Equal(t, method.POST, routes[2].Method)

		resp := http.NewResponse()
		result, err := routes[1].Middleware.Handle(http.NewRequest(nil), resp, appctx.New())
		require.NoError(t, err)
		require.Equal(t, End, result)
		require.Equal(t, []string{"api", "v1"}, trace)
		require.Equal(t, "user", string(resp.Body))

		trace = nil
		_, err = routes[0].Middleware.Handle(http.NewRequest(nil), http.NewResponse(), appctx.New())
		require.NoError(t, err)
		require.Equal(t, []string{"api"}, trace, "group middleware must not leak into the parent")
	})

	t.Run("mount prefix", func(t *testing.T) {
		r := New("")
		r.Get("/", text("root")).Get("items", text("items"))
		routes := r.Routes("/shop/")
		require.Equal(t, "/shop/", routes[0].Pattern)
		require.Equal(t, "/shop/items", routes[1].Pattern)
	})

	t.Run("scoped middleware declines", func(t *testing.T) {
		var trace []string
		r := New("/admin")
		r.Use(returning(NextRoute, &trace, "guard"))
		r.Get("/", returning(End, &trace, "handler"))

		result, err := r.Routes("")[0].Middleware.Handle(http.NewRequest(nil), http.NewResponse(), appctx.New())
		require.NoError(t, err)
		require.Equal(t, NextRoute, result)
		require.Equal(t, []string{"guard"}, trace)
	})
}

func TestChain(t *testing.T) {
	var trace []string
	c := Chain(
		returning(Next, &trace, "a"),
		returning(Next, &trace, "b"),
		returning(End, &trace, "c"),
		returning(Next, &trace, "d"),
	)

	result, err := c.Handle(http.NewRequest(nil), http.NewResponse(), appctx.New())
	require.NoError(t, err)
	require.Equal(t, End, result)
	require.Equal(t, []string{"a", "b", "c"}, trace)

	result, err = Chain().Handle(nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, Next, result)
}
