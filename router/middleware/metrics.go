package middleware

import (
	"bytes"

	"github.com/indigo-web/feather/appctx"
	"github.com/indigo-web/feather/http"
	"github.com/indigo-web/feather/http/method"
	"github.com/indigo-web/feather/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Metrics exposes the gathered metrics in the Prometheus text format at the path.
// Requests to other paths are passed further.
func Metrics(path string, gatherer prometheus.Gatherer) router.Middleware {
	return router.Func(func(req *http.Request, resp *http.Response, _ *appctx.Context) (router.Result, error) {
		if req.Path != path || (req.Method != method.GET && req.Method != method.HEAD) {
			return router.Next, nil
		}

		families, err := gatherer.Gather()
		if err != nil {
			return router.End, err
		}

		var buff bytes.Buffer
		for _, family := range families {
			if _, err = expfmt.MetricFamilyToText(&buff, family); err != nil {
				return router.End, err
			}
		}

		resp.ContentType(string(expfmt.NewFormat(expfmt.TypeTextPlain)))
		return router.FinishBytes(resp, buff.Bytes())
	})
}
