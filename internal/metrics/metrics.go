// Package metrics exposes Prometheus metrics for the optimizer. Each tier
// owns a private registry so the two binaries never collide.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	// OptimizationsTotal counts optimization requests by mode
	// ("direct"/"pipeline") and normalizer outcome.
	OptimizationsTotal *prometheus.CounterVec

	// OptimizationLatency tracks end-to-end optimization latency per mode.
	OptimizationLatency *prometheus.HistogramVec

	// ModelCallsTotal counts outbound model calls by template and status.
	ModelCallsTotal *prometheus.CounterVec

	// RateLimitedTotal counts requests rejected by the gateway rate limiter.
	RateLimitedTotal prometheus.Counter
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	m := &Registry{
		reg: reg,
		OptimizationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optiroute_optimizations_total",
			Help: "Optimization requests by mode and normalization outcome",
		}, []string{"mode", "outcome"}),
		OptimizationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "optiroute_optimization_latency_ms",
			Help:    "End-to-end optimization latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10),
		}, []string{"mode"}),
		ModelCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optiroute_model_calls_total",
			Help: "Outbound model calls by prompt template and status",
		}, []string{"template", "status"}),
		RateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "optiroute_rate_limited_total",
			Help: "Requests rejected by the per-IP rate limiter",
		}),
	}
	reg.MustRegister(m.OptimizationsTotal, m.OptimizationLatency, m.ModelCallsTotal, m.RateLimitedTotal)
	return m
}

func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
