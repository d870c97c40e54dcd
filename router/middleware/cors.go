package middleware

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/indigo-web/feather/appctx"
	"github.com/indigo-web/feather/http"
	"github.com/indigo-web/feather/http/method"
	"github.com/indigo-web/feather/http/status"
	"github.com/indigo-web/feather/router"
)

type CorsOptions struct {
	// Origins allowed to make requests. Empty list or "*" allows any.
	Origins []string
	Methods []method.Method
	Headers []string
	MaxAge  time.Duration
}

// Cors adds CORS headers to responses and answers preflight requests itself.
func Cors(opts CorsOptions) router.Middleware {
	if len(opts.Methods) == 0 {
		opts.Methods = []method.Method{method.GET, method.HEAD, method.POST, method.PUT, method.DELETE, method.PATCH}
	}

	methods := make([]string, len(opts.Methods))
	for i, m := range opts.Methods {
		methods[i] = m.String()
	}

	var (
		allowMethods = strings.Join(methods, ", ")
		allowHeaders = strings.Join(opts.Headers, ", ")
		anyOrigin    = len(opts.Origins) == 0 || slices.Contains(opts.Origins, "*")
	)

	return router.Func(func(req *http.Request, resp *http.Response, _ *appctx.Context) (router.Result, error) {
		origin := req.Headers.Value("Origin")

		switch {
		case anyOrigin:
			resp.SetHeader("Access-Control-Allow-Origin", "*")
		case len(origin) > 0 && slices.Contains(opts.Origins, origin):
			resp.SetHeader("Access-Control-Allow-Origin", origin)
			resp.Header("Vary", "Origin")
		default:
			return router.Next, nil
		}

		if req.Method != method.OPTIONS || !req.Headers.Has("Access-Control-Request-Method") {
			return router.Next, nil
		}

		resp.SetHeader("Access-Control-Allow-Methods", allowMethods)
		if len(allowHeaders) > 0 {
			resp.SetHeader("Access-Control-Allow-Headers", allowHeaders)
		}
		if opts.MaxAge > 0 {
			resp.SetHeader("Access-Control-Max-Age", strconv.Itoa(int(opts.MaxAge.Seconds())))
		}

		resp.Code(status.NoContent)
		return router.End, nil
	})
}
