// Package prometheus renders suvclient counters in Prometheus text exposition format.
//
// [NewPrometheusExporter] reads a [suvclient.Client] and exposes an
// [http.Handler]. Counter names are suvclient_*_total; the single histogram
// is suvclient_request_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate client state.
package prometheus
