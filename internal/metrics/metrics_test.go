package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("GET", 200, 5*time.Millisecond)
	m.ObserveRequest("GET", 200, time.Millisecond)
	m.ObserveRequest("POST", 404, time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("POST", "404")))
	require.Equal(t, 2, testutil.CollectAndCount(m.RequestsDurations))

	count, err := testutil.GatherAndCount(reg, "feather_http_requests_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.Panics(t, func() {
		New(reg)
	}, "registering twice must fail")
}
