package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(backendRequestsTotal, backendLatencyMs, catalogTokenRefreshTotal)
}

var (
	backendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Outbound HTTP calls to external collaborators by service, operation and status code.",
		},
		[]string{"service", "op", "code"},
	)

	backendLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_latency_ms",
			Help:    "Outbound HTTP call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
		},
		[]string{"service", "op"},
	)

	catalogTokenRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_token_refresh_total",
			Help: "Catalog access token acquisitions by grant type and result.",
		},
		[]string{"grant", "result"},
	)
)

// ObserveBackendCall records one outbound call. code 0 means a transport error.
func ObserveBackendCall(service, op string, code int, latencyMs int64) {
	backendRequestsTotal.WithLabelValues(norm(service), norm(op), strconv.Itoa(code)).Inc()
	backendLatencyMs.WithLabelValues(norm(service), norm(op)).Observe(float64(latencyMs))
}

func IncTokenRefresh(grant string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	catalogTokenRefreshTotal.WithLabelValues(norm(grant), result).Inc()
}
