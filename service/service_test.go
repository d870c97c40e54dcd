package service

import (
	"testing"

	"github.com/indigo-web/feather/http"
	"github.com/stretchr/testify/require"
)

func TestFunc(t *testing.T) {
	var svc Service = Func(func(req *http.Request) (Result, error) {
		if req.Path == "/upgrade" {
			return Consumed(), nil
		}

		return Response(http.NewResponse().String(req.Path)), nil
	})

	req := http.NewRequest(nil)
	req.Path = "/hello"
	result, err := svc.Handle(req)
	require.NoError(t, err)
	require.Equal(t, KindResponse, result.Kind)
	require.Equal(t, "/hello", string(result.Response.Body))

	req.Path = "/upgrade"
	result, err = svc.Handle(req)
	require.NoError(t, err)
	require.Equal(t, KindConsumed, result.Kind)
	require.Nil(t, result.Response)
	require.Equal(t, "consumed", result.Kind.String())
}
