package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds every Prometheus collector the control API registers,
// scraped via /admin/perf.
type metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeStreams   prometheus.Gauge
	tickDuration    prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "subwar_http_requests_total",
			Help: "Total control API requests by route and status class.",
		}, []string{"route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "subwar_http_request_duration_seconds",
			Help:    "Control API request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		activeStreams: f.NewGauge(prometheus.GaugeOpts{
			Name: "subwar_active_event_streams",
			Help: "Number of currently connected SSE event streams.",
		}),
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "subwar_tick_duration_seconds",
			Help:    "Wall-clock duration of each simulation tick.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// statusRecorder wraps a ResponseWriter so route returns the status
// code eventually written even though net/http never exposes it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Instrument wraps next so every request against route is counted and
// timed, regardless of which handler ultimately serves it.
func (m *metrics) Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.requestsTotal.WithLabelValues(route, statusClass(rec.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
