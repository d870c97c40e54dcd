package proto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromBytes(t *testing.T) {
	require.Equal(t, HTTP10, FromBytes([]byte("HTTP/1.0")))
	require.Equal(t, HTTP11, FromBytes([]byte("HTTP/1.1")))
	require.Equal(t, Unknown, FromBytes([]byte("HTTP/2.0")))
	require.Equal(t, Unknown, FromBytes([]byte("HTTP/1.11")))
	require.Equal(t, Unknown, FromBytes([]byte("HTTP/1,1")))
	require.Equal(t, Unknown, FromBytes([]byte("HTTPS/11")))
	require.Equal(t, "HTTP/1.1", HTTP11.String())
}
