package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Submissions     *prometheus.CounterVec
	Rejections      *prometheus.CounterVec
	Reviews         *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_submissions_total",
				Help: "Accepted ledger operations by kind.",
			},
			[]string{"kind"},
		),
		Rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_rejections_total",
				Help: "Operations refused by the eligibility rules, by kind and reason.",
			},
			[]string{"kind", "reason"},
		),
		Reviews: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_reviews_total",
				Help: "Administrator reviews of ledger entries by kind and resulting status.",
			},
			[]string{"kind", "status"},
		),
	}

	m.registry.MustRegister(
		m.RequestCount,
		m.RequestDuration,
		m.Submissions,
		m.Rejections,
		m.Reviews,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
