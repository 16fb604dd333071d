package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tablebook"

// Metrics holds the collectors for the web UI, the booking service client and
// the form controllers. It satisfies bookingapi.Recorder and form.Recorder.
type Metrics struct {
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	APIRequests    *prometheus.CounterVec
	APIDuration    *prometheus.HistogramVec
	Submissions    *prometheus.CounterVec
	SlotFetches    *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served by the booking UI.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests served by the booking UI.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_api_requests_total",
			Help:      "Requests sent to the booking service.",
		}, []string{"endpoint", "result"}),
		APIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "booking_api_request_duration_seconds",
			Help:      "Latency of requests sent to the booking service.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Booking form submissions by outcome.",
		}, []string{"status"}),
		SlotFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_fetches_total",
			Help:      "Availability fetches by result.",
		}, []string{"result"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Booking forms currently held in memory.",
		}),
	}
	reg.MustRegister(
		m.HTTPRequests, m.HTTPDuration,
		m.APIRequests, m.APIDuration,
		m.Submissions, m.SlotFetches,
		m.ActiveSessions,
	)
	return m
}

func (m *Metrics) APIRequest(endpoint, result string, elapsed time.Duration) {
	m.APIRequests.WithLabelValues(endpoint, result).Inc()
	m.APIDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (m *Metrics) SlotFetch(result string) {
	m.SlotFetches.WithLabelValues(result).Inc()
}

func (m *Metrics) Submission(status string) {
	m.Submissions.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) SetActiveSessions(n int) {
	m.ActiveSessions.Set(float64(n))
}
