package middleware

import (
	"github.com/google/uuid"
	"github.com/indigo-web/feather/appctx"
	"github.com/indigo-web/feather/http"
	"github.com/indigo-web/feather/router"
)

const RequestIDHeader = "X-Request-ID"

// RequestID is attached to the request as an extension.
type RequestID string

// WithRequestID reuses the request id from the header if it's a valid UUID, otherwise
// generates a new one. The id is echoed in the response header.
func WithRequestID() router.Middleware {
	return router.Func(func(req *http.Request, resp *http.Response, _ *appctx.Context) (router.Result, error) {
		id := req.Headers.Value(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		http.SetExtension(req, RequestID(id))
		resp.SetHeader(RequestIDHeader, id)

		return router.Next, nil
	})
}
