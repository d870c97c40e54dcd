package jwt

import (
	"strings"

	"github.com/indigo-web/feather/appctx"
	"github.com/indigo-web/feather/http"
	"github.com/indigo-web/feather/http/status"
	"github.com/indigo-web/feather/router"
)

// Required rejects requests without a valid bearer token with 401 Unauthorized. The
// Manager is taken from the application context. Decoded claims are attached to the
// request as *SimpleClaims extension.
func Required() router.Middleware {
	return router.Func(func(req *http.Request, resp *http.Response, ctx *appctx.Context) (router.Result, error) {
		manager, ok := appctx.Get[*Manager](ctx)
		if !ok {
			return router.End, status.ErrInternalServerError
		}

		token, found := strings.CutPrefix(req.Headers.Value("Authorization"), "Bearer ")
		if !found {
			return unauthorized(resp)
		}

		claims, err := Decode[SimpleClaims](manager, strings.TrimSpace(token))
		if err != nil {
			return unauthorized(resp)
		}

		http.SetExtension(req, claims)
		return router.Next, nil
	})
}

func unauthorized(resp *http.Response) (router.Result, error) {
	resp.SetHeader("WWW-Authenticate", "Bearer")
	return router.FinishStatus(resp, status.Unauthorized, "401 Unauthorized")
}
