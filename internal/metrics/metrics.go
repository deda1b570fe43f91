package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestTotal counts HTTP requests by method, route and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logreport_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "logreport_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	// FlowsTotal counts report flow runs (full_report, selected_report, download).
	FlowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logreport_flows_total",
			Help: "Total number of report flow runs",
		},
		[]string{"flow", "status"},
	)
	FlowDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "logreport_flow_duration_seconds",
			Help:    "Report flow latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"flow"},
	)
)

// FlowObserver records flow runs into FlowsTotal and FlowDuration.
type FlowObserver struct{}

func (FlowObserver) ObserveFlow(flow string, success bool, elapsed time.Duration) {
	FlowsTotal.WithLabelValues(flow, statusLabel(success)).Inc()
	FlowDuration.WithLabelValues(flow).Observe(elapsed.Seconds())
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
