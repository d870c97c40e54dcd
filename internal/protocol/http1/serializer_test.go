package http1

import (
	"bufio"
	"bytes"
	"io"
	stdhttp "net/http"
	"testing"
	"time"

	"github.com/indigo-web/feather/http"
	"github.com/indigo-web/feather/http/method"
	"github.com/indigo-web/feather/http/status"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func newSerializer() *Serializer {
	s := NewSerializer(make([]byte, 0, 1024))
	s.now = func() time.Time {
		return fixedTime
	}

	return s
}

func readResponse(t *testing.T, data []byte, reqMethod string) (*stdhttp.Response, string) {
	t.Helper()
	stdreq, err := stdhttp.NewRequest(reqMethod, "/", nil)
	require.NoError(t, err)
	resp, err := stdhttp.ReadResponse(bufio.NewReader(bytes.NewReader(data)), stdreq)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

func TestSerializer(t *testing.T) {
	t.Run("default response", func(t *testing.T) {
		data := newSerializer().Serialize(method.GET, http.NewResponse())
		require.Equal(t,
			"HTTP/1.1 200 OK\r\nDate: Fri, 01 Mar 2024 12:00:00 GMT\r\nContent-Length: 0\r\n\r\n",
			string(data),
		)
	})

	t.Run("round trip", func(t *testing.T) {
		response := http.NewResponse().
			Code(status.Created).
			Header("X-Custom", "first", "second").
			String("Hello World")

		resp, body := readResponse(t, newSerializer().Serialize(method.POST, response), stdhttp.MethodPost)
		require.Equal(t, 201, resp.StatusCode)
		require.Equal(t, "201 Created", resp.Status)
		require.Equal(t, []string{"first", "second"}, resp.Header["X-Custom"])
		require.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
		require.Equal(t, int64(11), resp.ContentLength)
		require.Equal(t, "Hello World", body)
	})

	t.Run("head omits body", func(t *testing.T) {
		data := newSerializer().Serialize(method.HEAD, http.NewResponse().String("Hello World"))
		require.True(t, bytes.HasSuffix(data, []byte("Content-Length: 11\r\n\r\n")), string(data))
	})

	t.Run("no body status", func(t *testing.T) {
		data := newSerializer().Serialize(method.GET, http.NewResponse().Code(status.NoContent))
		require.Equal(t,
			"HTTP/1.1 204 No Content\r\nDate: Fri, 01 Mar 2024 12:00:00 GMT\r\n\r\n",
			string(data),
		)
	})

	t.Run("user date is kept", func(t *testing.T) {
		data := newSerializer().Serialize(method.GET, http.NewResponse().Header("Date", "yesterday"))
		require.Equal(t, 1, bytes.Count(data, []byte("Date: ")))
		require.Contains(t, string(data), "Date: yesterday\r\n")
	})

	t.Run("headers breaking framing are dropped", func(t *testing.T) {
		response := http.NewResponse().
			Header("X-Echo", "value\r\nSet-Cookie: session=evil").
			Header("X-Bare-LF", "a\nb").
			Header("Bad\r\nKey", "value").
			Header("Content-Length", "0\r\n\r\nHTTP/1.1 200 OK").
			Header("X-Fine", "kept").
			String("Hello")

		data := newSerializer().Serialize(method.GET, response)
		require.NotContains(t, string(data), "Set-Cookie")
		require.NotContains(t, string(data), "X-Bare-LF")
		require.NotContains(t, string(data), "Bad")

		resp, body := readResponse(t, data, stdhttp.MethodGet)
		require.Equal(t, "kept", resp.Header.Get("X-Fine"))
		require.Equal(t, int64(5), resp.ContentLength)
		require.Equal(t, "Hello", body)
	})

	t.Run("unknown code", func(t *testing.T) {
		resp, _ := readResponse(t, newSerializer().Serialize(method.GET, http.NewResponse().Code(599)), stdhttp.MethodGet)
		require.Equal(t, "599 Unknown", resp.Status)
	})

	t.Run("error", func(t *testing.T) {
		resp, body := readResponse(t, newSerializer().Error(status.BadRequest, "bad request"), stdhttp.MethodGet)
		require.Equal(t, 400, resp.StatusCode)
		require.True(t, resp.Close)
		require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
		require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
		require.Equal(t, "bad request", body)
	})
}
