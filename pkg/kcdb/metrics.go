package kcdb

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records KCDB request counts and latencies.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the request metrics and registers them on reg.
// A nil reg registers on the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kcdb_client_requests_total",
			Help: "Total number of requests sent to the KCDB server",
		}, []string{"method", "endpoint", "code"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kcdb_client_request_duration_seconds",
			Help:    "Duration of KCDB requests, including time spent waiting on the rate limiter",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "endpoint"}),
	}
}

// ObserveRequest records one request. code is the HTTP status, or 0 when no
// response was received. Call with time.Now() at the start of the request.
func (m *Metrics) ObserveRequest(method, endpoint string, code int, start time.Time) {
	if m == nil {
		return
	}
	status := "error"
	if code > 0 {
		status = strconv.Itoa(code)
	}
	m.Requests.WithLabelValues(method, endpoint, status).Inc()
	m.RequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
}
