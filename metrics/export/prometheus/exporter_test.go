package prometheus

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	suvclient "github.com/MrEthical07/suvclient"
)

type fakeSource struct {
	snapshot suvclient.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() suvclient.MetricsSnapshot { return f.snapshot }
func (f fakeSource) NotifyDropped() uint64                      { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: suvclient.MetricsSnapshot{
			Counters:   map[suvclient.MetricID]uint64{},
			Histograms: map[suvclient.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: suvclient.MetricsSnapshot{
			Counters: map[suvclient.MetricID]uint64{
				suvclient.MetricRequest:         7,
				suvclient.MetricUnauthenticated: 1,
			},
			Histograms: map[suvclient.MetricID][]uint64{
				suvclient.MetricRequestLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"suvclient_requests_total 7",
		"suvclient_unauthenticated_total 1",
		"suvclient_login_success_total 0",
		`suvclient_request_latency_seconds_bucket{le="0.005"} 1`,
		`suvclient_request_latency_seconds_bucket{le="+Inf"} 36`,
		"suvclient_request_latency_seconds_count 36",
		"suvclient_notify_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestHandlerServesLiveClient(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer upstream.Close()

	client, err := suvclient.New().WithBaseURL(upstream.URL).Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	defer client.Close()
	if _, err := client.Request(context.Background(), "/api/me", nil); err != nil {
		t.Fatalf("request: %v", err)
	}

	rec := httptest.NewRecorder()
	NewPrometheusExporter(client).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "suvclient_unauthenticated_total 1") {
		t.Fatalf("expected unauthenticated counter, got:\n%s", body)
	}
	if !strings.Contains(string(body), "suvclient_navigations_total 1") {
		t.Fatalf("expected navigation counter, got:\n%s", body)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: suvclient.MetricsSnapshot{
			Counters: map[suvclient.MetricID]uint64{
				suvclient.MetricRequest:      1000,
				suvclient.MetricLoginSuccess: 40,
				suvclient.MetricNavigation:   12,
			},
			Histograms: map[suvclient.MetricID][]uint64{
				suvclient.MetricRequestLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
