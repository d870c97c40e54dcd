package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/indigo-web/feather/appctx"
	"github.com/indigo-web/feather/http"
	"github.com/indigo-web/feather/router"
	"go.uber.org/zap"
)

// Recover wraps the middleware, turning its panics into errors. Such errors are handled
// same as returned ones, and the half-cooked response is discarded.
func Recover(logger *zap.Logger, next router.Middleware) router.Middleware {
	return router.Func(func(req *http.Request, resp *http.Response, ctx *appctx.Context) (result router.Result, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("handler panicked", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				resp.Clear()
				result, err = router.End, fmt.Errorf("recovered from panic: %v", r)
			}
		}()

		return next.Handle(req, resp, ctx)
	})
}
