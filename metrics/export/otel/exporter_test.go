package otel

import (
	"context"
	"sync"
	"testing"

	suvclient "github.com/MrEthical07/suvclient"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot suvclient.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() suvclient.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := suvclient.MetricsSnapshot{
		Counters:   make(map[suvclient.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[suvclient.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		out.Histograms[k] = append([]uint64(nil), buckets...)
	}
	return out
}

func (f *fakeSource) NotifyDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newReader() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if len(data.DataPoints) > 0 {
					return data.DataPoints[0].Value
				}
			case metricdata.Gauge[int64]:
				if len(data.DataPoints) > 0 {
					return data.DataPoints[0].Value
				}
			}
		}
	}
	t.Fatalf("metric %s not collected", name)
	return 0
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newReader()
	meter := provider.Meter("suvclient-test")

	src := &fakeSource{
		snapshot: suvclient.MetricsSnapshot{
			Counters: map[suvclient.MetricID]uint64{
				suvclient.MetricLoginSuccess:    3,
				suvclient.MetricUnauthenticated: 2,
			},
			Histograms: map[suvclient.MetricID][]uint64{
				suvclient.MetricRequestLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if got := sumValue(t, rm, "suvclient_login_success_total"); got != 3 {
		t.Fatalf("login success = %d, want 3", got)
	}
	if got := sumValue(t, rm, "suvclient_unauthenticated_total"); got != 2 {
		t.Fatalf("unauthenticated = %d, want 2", got)
	}
	if got := sumValue(t, rm, "suvclient_notify_dropped_total"); got != 1 {
		t.Fatalf("notify dropped = %d, want 1", got)
	}
	if got := sumValue(t, rm, "suvclient_request_latency_seconds_count"); got != 8 {
		t.Fatalf("latency count = %d, want 8", got)
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	_, provider := newReader()
	meter := provider.Meter("suvclient-test")

	if _, err := NewOTelExporterFromSource(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewOTelExporter(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource for nil client, got %v", err)
	}
	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterReadsLiveClient(t *testing.T) {
	reader, provider := newReader()

	client, err := suvclient.New().WithBaseURL("http://suv.test").Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	defer client.Close()
	client.Toast(context.Background(), "saved", suvclient.NoticeSuccess)

	exp, err := NewOTelExporter(provider.Meter("suvclient-test"), client)
	if err != nil {
		t.Fatalf("NewOTelExporter failed: %v", err)
	}
	defer exp.Close()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got := sumValue(t, rm, "suvclient_notifications_total"); got != 1 {
		t.Fatalf("notifications = %d, want 1", got)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newReader()
	meter := provider.Meter("suvclient-test")

	src := &fakeSource{
		snapshot: suvclient.MetricsSnapshot{
			Counters: map[suvclient.MetricID]uint64{
				suvclient.MetricRequest: 1,
			},
			Histograms: map[suvclient.MetricID][]uint64{
				suvclient.MetricRequestLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[suvclient.MetricRequest] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
