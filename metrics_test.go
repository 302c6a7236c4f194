package suvclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricRequest)

	if got := m.Value(MetricRequest); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %v", snap.Counters)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricRequest)
	m.Observe(MetricRequestLatency, time.Millisecond)
	if m.Enabled() || m.LatencyEnabled() {
		t.Fatal("nil metrics must report disabled")
	}
	if got := m.Value(MetricRequest); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricRequest)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricRequest); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBuckets(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	for _, d := range []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		2 * time.Second,
	} {
		m.Observe(MetricRequestLatency, d)
	}
	m.Observe(MetricRequest, time.Millisecond)

	buckets := m.Snapshot().Histograms[MetricRequestLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsHistogramOmittedWithoutLatency(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Observe(MetricRequestLatency, time.Millisecond)

	snap := m.Snapshot()
	if _, ok := snap.Histograms[MetricRequestLatency]; ok {
		t.Fatal("latency histogram should be absent when disabled")
	}
	if _, ok := snap.Counters[MetricRequestLatency]; ok {
		t.Fatal("latency id must not appear as a counter")
	}
}

func TestClientRecordsRequestMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/me" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New().WithBaseURL(srv.URL).WithLatencyHistograms(true).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	res, err := c.Request(ctx, "/ok", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	res.Response.Body.Close()
	if _, err := c.Request(ctx, "/api/me", nil); err != nil {
		t.Fatalf("request: %v", err)
	}

	snap := c.MetricsSnapshot()
	if snap.Counters[MetricRequest] != 2 {
		t.Fatalf("requests = %d, want 2", snap.Counters[MetricRequest])
	}
	if snap.Counters[MetricUnauthenticated] != 1 {
		t.Fatalf("unauthenticated = %d, want 1", snap.Counters[MetricUnauthenticated])
	}
	if snap.Counters[MetricNavigation] != 1 {
		t.Fatalf("navigations = %d, want 1", snap.Counters[MetricNavigation])
	}
	var total uint64
	for _, v := range snap.Histograms[MetricRequestLatency] {
		total += v
	}
	if total != 2 {
		t.Fatalf("latency samples = %d, want 2", total)
	}
}
