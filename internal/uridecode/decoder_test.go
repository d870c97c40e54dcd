package uridecode

import (
	"strings"
	"testing"

	"github.com/indigo-web/feather/http/status"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("no escaping", func(t *testing.T) {
		decoded, err := Decode([]byte("/hello"), nil)
		require.NoError(t, err)
		require.Equal(t, "/hello", string(decoded))
	})

	t.Run("corners", func(t *testing.T) {
		decoded, err := Decode([]byte("%2fhello%2F"), nil)
		require.NoError(t, err)
		require.Equal(t, "/hello/", string(decoded))
	})

	t.Run("multiple consecutive", func(t *testing.T) {
		decoded, err := Decode([]byte("%2f%20hello"), nil)
		require.NoError(t, err)
		require.Equal(t, "/ hello", string(decoded))
	})

	t.Run("in place", func(t *testing.T) {
		src := []byte("/a%20b%20c")
		decoded, err := Decode(src, src[:0])
		require.NoError(t, err)
		require.Equal(t, "/a b c", string(decoded))
	})

	t.Run("incomplete sequence", func(t *testing.T) {
		_, err := Decode([]byte("%2"), nil)
		require.ErrorIs(t, err, status.ErrURIDecoding)
	})

	t.Run("invalid hex", func(t *testing.T) {
		_, err := Decode([]byte("/%zz"), nil)
		require.ErrorIs(t, err, status.ErrURIDecoding)
	})

	t.Run("long slightly escaped", func(t *testing.T) {
		str := "/" + strings.Repeat("aaaaaaaaa%5f", 300)
		decoded, err := Decode([]byte(str), nil)
		require.NoError(t, err)
		require.Equal(t, "/"+strings.Repeat("aaaaaaaaa_", 300), string(decoded))
	})
}
