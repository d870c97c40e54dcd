// Package middleware contains ready-to-use middlewares.
package middleware

import (
	"github.com/indigo-web/feather/appctx"
	"github.com/indigo-web/feather/http"
	"github.com/indigo-web/feather/router"
	"go.uber.org/zap"
)

// Logger logs every incoming request and passes it further.
func Logger(logger *zap.Logger) router.Middleware {
	return router.Func(func(req *http.Request, _ *http.Response, _ *appctx.Context) (router.Result, error) {
		fields := []zap.Field{
			zap.Stringer("method", req.Method),
			zap.String("path", req.Path),
			zap.Stringer("protocol", req.Protocol),
		}

		if req.Remote != nil {
			fields = append(fields, zap.Stringer("remote", req.Remote))
		}

		if id, ok := http.Extension[RequestID](req); ok {
			fields = append(fields, zap.String("request_id", string(id)))
		}

		logger.Info("request", fields...)
		return router.Next, nil
	})
}
