package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsObserve(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveHTTP("/transcript/{videoID}", "200", 10*time.Millisecond)
	m.ObserveHTTP("/transcript/{videoID}", "200", 20*time.Millisecond)
	m.ObserveHTTP("/transcript/{videoID}", "429", time.Millisecond)
	m.IncRateLimited()
	m.IncAuthFailures()
	m.ObserveUpstream("", time.Second)
	m.ObserveUpstream(ReasonNoTranscript, time.Second)

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/transcript/{videoID}", "200")); got != 2 {
		t.Errorf("http 200 count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RateLimited); got != 1 {
		t.Errorf("rate limited = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.AuthFailures); got != 1 {
		t.Errorf("auth failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.UpstreamRequests); got != 2 {
		t.Errorf("upstream requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.UpstreamErrors.WithLabelValues(string(ReasonNoTranscript))); got != 1 {
		t.Errorf("upstream errors = %v, want 1", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("/", "200", time.Millisecond)
	m.IncRateLimited()
	m.IncAuthFailures()
	m.ObserveUpstream(ReasonTransient, time.Millisecond)
}

func TestTrackOperation(t *testing.T) {
	want := errors.New("boom")
	err := TrackOperation(context.Background(), "test", func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Errorf("TrackOperation() = %v, want %v", err, want)
	}
}
