package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backend and cache Prometheus metrics.
var (
	BackendCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metasearch",
			Name:      "backend_calls_total",
			Help:      "Total number of backend calls",
		},
		[]string{"backend", "op", "status"},
	)

	BackendCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "metasearch",
			Name:      "backend_call_duration_seconds",
			Help:      "Backend call duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"backend", "op"},
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metasearch",
			Name:      "cache_total",
			Help:      "Cache hits, misses and errors",
		},
		[]string{"cache", "result"}, // "hit" / "miss" / "error"
	)
)

var backendMetricsRegistered bool

// RegisterBackendMetrics registers backend and cache metrics. Must be called once from main.
func RegisterBackendMetrics() {
	if backendMetricsRegistered {
		return
	}
	prometheus.MustRegister(BackendCallsTotal)
	prometheus.MustRegister(BackendCallDuration)
	prometheus.MustRegister(CacheTotal)
	backendMetricsRegistered = true
}

// Status returns the status label for a call outcome.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
