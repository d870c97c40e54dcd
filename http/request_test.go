package http

import (
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

type pendingConn struct {
	net.Conn
	pending []byte
}

func (p pendingConn) Pending() []byte {
	return p.pending
}

func TestRequest(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		req := NewRequest(nil)
		req.RawQuery = "q=test&page=1"
		params, err := req.Query()
		require.NoError(t, err)
		require.Equal(t, map[string]string{"q": "test", "page": "1"}, params.Map())

		again, err := req.Query()
		require.NoError(t, err)
		require.Same(t, params, again)
	})

	t.Run("reset", func(t *testing.T) {
		req := NewRequest(nil)
		req.Path = "/user/42"
		req.Headers.Add("Host", "localhost")
		req.Params.Add("id", "42")
		req.Body = []byte("hello")
		req.State = Close
		SetExtension(req, 5)
		req.Reset()

		require.Empty(t, req.Path)
		require.True(t, req.Headers.Empty())
		require.Empty(t, req.Param("id"))
		require.Nil(t, req.Body)
		require.Equal(t, KeepAlive, req.State)
		_, found := Extension[int](req)
		require.False(t, found)
	})

	t.Run("take conn", func(t *testing.T) {
		server, client := net.Pipe()
		defer client.Close()
		req := NewRequest(pendingConn{Conn: server, pending: []byte("leftover")})

		conn, ok := req.TakeConn()
		require.True(t, ok)
		require.True(t, req.Hijacked())

		_, ok = req.TakeConn()
		require.False(t, ok)

		go func() {
			_, _ = client.Write([]byte(" and fresh"))
		}()

		buff := make([]byte, len("leftover and fresh"))
		_, err := io.ReadFull(conn, buff)
		require.NoError(t, err)
		require.Equal(t, "leftover and fresh", string(buff))
		require.NoError(t, conn.Close())
	})

	t.Run("json", func(t *testing.T) {
		var model struct {
			Name string `json:"name"`
		}

		req := NewRequest(nil)
		req.Body = []byte(`{"name":"feather"}`)
		require.NoError(t, req.JSON(&model))
		require.Equal(t, "feather", model.Name)
	})
}

func TestExtensions(t *testing.T) {
	type userID string

	req := NewRequest(nil)
	SetExtension(req, userID("42"))
	SetExtension(req, "plain string")

	id, found := Extension[userID](req)
	require.True(t, found)
	require.Equal(t, userID("42"), id)

	str, found := Extension[string](req)
	require.True(t, found)
	require.Equal(t, "plain string", str)

	_, found = Extension[int](req)
	require.False(t, found)
}
