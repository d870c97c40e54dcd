package http

import (
	"strings"
	"testing"

	"github.com/indigo-web/feather/http/status"
	"github.com/indigo-web/feather/internal/server/http/dummy"
	"github.com/stretchr/testify/require"
)

func TestConn(t *testing.T) {
	t.Run("grows and compacts", func(t *testing.T) {
		body := strings.Repeat("x", 100)
		raw := "POST / HTTP/1.1\r\nContent-Length: 100\r\n\r\n" + body + "GET /next HTTP/1.1\r\n\r\n"
		var pieces []string
		for len(raw) > 0 {
			n := min(7, len(raw))
			pieces = append(pieces, raw[:n])
			raw = raw[n:]
		}

		c := newConn(dummy.NewConnString(pieces...), 4, 0)
		head, err := c.readHead(1024)
		require.NoError(t, err)
		require.Equal(t, "POST / HTTP/1.1\r\nContent-Length: 100", string(head))

		got, err := c.readBody(100)
		require.NoError(t, err)
		require.Equal(t, body, string(got))

		head, err = c.readHead(1024)
		require.NoError(t, err)
		require.Equal(t, "GET /next HTTP/1.1", string(head))
		require.True(t, c.empty())
	})

	t.Run("pending", func(t *testing.T) {
		c := newConn(dummy.NewConnString("GET / HTTP/1.1\r\n\r\nextra"), 64, 0)
		_, err := c.readHead(1024)
		require.NoError(t, err)
		require.Equal(t, "extra", string(c.Pending()))
	})

	t.Run("skips leading line breaks", func(t *testing.T) {
		c := newConn(dummy.NewConnString("\r\n\n\r", "\nGET / HTTP/1.1\r\n\r\n"), 64, 0)
		head, err := c.readHead(1024)
		require.NoError(t, err)
		require.Equal(t, "GET / HTTP/1.1", string(head))
	})

	t.Run("endless line breaks", func(t *testing.T) {
		c := newConn(dummy.NewConnString(strings.Repeat("\r\n", 64)), 64, 0)
		_, err := c.readHead(32)
		require.ErrorIs(t, err, status.ErrHeaderFieldsTooLarge)
	})
}

func TestLeadingEmptyLines(t *testing.T) {
	require.Equal(t, 0, leadingEmptyLines([]byte("GET")))
	require.Equal(t, 3, leadingEmptyLines([]byte("\r\n\nGET")))
	require.Equal(t, 2, leadingEmptyLines([]byte("\r\n\r")))
	require.Equal(t, 0, leadingEmptyLines(nil))
}
