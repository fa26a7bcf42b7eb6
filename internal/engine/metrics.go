package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks operational counters across the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	RateLimited      prometheus.Counter
	AuthFailures     prometheus.Counter
	UpstreamRequests prometheus.Counter
	UpstreamErrors   *prometheus.CounterVec
	UpstreamDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "transcript_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "transcript_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "transcript_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
		AuthFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "transcript_auth_failures_total",
			Help: "Requests rejected for a missing or wrong API key",
		}),
		UpstreamRequests: f.NewCounter(prometheus.CounterOpts{
			Name: "transcript_upstream_requests_total",
			Help: "Transcript fetches sent upstream",
		}),
		UpstreamErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "transcript_upstream_errors_total",
			Help: "Failed transcript fetches by reason",
		}, []string{"reason"}),
		UpstreamDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "transcript_upstream_duration_seconds",
			Help:    "Transcript fetch latency",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, status).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) IncRateLimited() {
	if m != nil {
		m.RateLimited.Inc()
	}
}

func (m *Metrics) IncAuthFailures() {
	if m != nil {
		m.AuthFailures.Inc()
	}
}

// ObserveUpstream records a finished fetch; reason is empty on success.
func (m *Metrics) ObserveUpstream(reason Reason, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.Inc()
	m.UpstreamDuration.Observe(elapsed.Seconds())
	if reason != "" {
		m.UpstreamErrors.WithLabelValues(string(reason)).Inc()
	}
}

// SlowOperationThreshold is the elapsed time above which TrackOperation warns.
var SlowOperationThreshold = 5 * time.Second

// TrackOperation logs a warning if an operation takes longer than SlowOperationThreshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > SlowOperationThreshold {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
