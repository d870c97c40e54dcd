// Package metrics holds Prometheus collectors of the engine.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "feather"

// LatencyBuckets cover request handling from 100us to 10s.
var LatencyBuckets = []float64{
	0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

type Metrics struct {
	ActiveWorkers     prometheus.Gauge
	IdleWorkers       prometheus.Gauge
	WorkerPanics      prometheus.Counter
	AcceptedConns     prometheus.Counter
	AcceptErrors      prometheus.Counter
	OpenConns         prometheus.Gauge
	ConsumedConns     prometheus.Counter
	IOErrors          *prometheus.CounterVec
	EngineErrors      *prometheus.CounterVec
	Requests          *prometheus.CounterVec
	RequestsDurations *prometheus.HistogramVec
}

// New creates the collectors and registers them in the registerer, unless it's nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "active_workers",
			Help:      "Number of live worker goroutines.",
		}),
		IdleWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "idle_workers",
			Help:      "Number of workers waiting for a job.",
		}),
		WorkerPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "panics_total",
			Help:      "Number of tasks recovered from a panic.",
		}),
		AcceptedConns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tcp",
			Name:      "accepted_connections_total",
			Help:      "Number of accepted connections.",
		}),
		AcceptErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tcp",
			Name:      "accept_errors_total",
			Help:      "Number of failed accept calls.",
		}),
		OpenConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tcp",
			Name:      "open_connections",
			Help:      "Number of connections currently being served.",
		}),
		ConsumedConns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "consumed_connections_total",
			Help:      "Number of connections taken over by handlers.",
		}),
		IOErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "io_errors_total",
			Help:      "Number of socket errors by kind.",
		}, []string{"kind"}),
		EngineErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "engine_errors_total",
			Help:      "Number of error responses produced by the engine itself.",
		}, []string{"code"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of handled requests by method and response code.",
		}, []string{"method", "code"}),
		RequestsDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time spent in the application per request.",
			Buckets:   LatencyBuckets,
		}, []string{"method"}),
	}

	if reg != nil {
		reg.MustRegister(m.collectors()...)
	}

	return m
}

// Nop returns unregistered collectors.
func Nop() *Metrics {
	return New(nil)
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ActiveWorkers, m.IdleWorkers, m.WorkerPanics,
		m.AcceptedConns, m.AcceptErrors, m.OpenConns, m.ConsumedConns,
		m.IOErrors, m.EngineErrors, m.Requests, m.RequestsDurations,
	}
}

// ObserveRequest records a request handled by the application.
func (m *Metrics) ObserveRequest(method string, code int, elapsed time.Duration) {
	m.Requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.RequestsDurations.WithLabelValues(method).Observe(elapsed.Seconds())
}
