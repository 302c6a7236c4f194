package internaldefs

import (
	suvclient "github.com/MrEthical07/suvclient"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   suvclient.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   suvclient.MetricID
	Name string
	Help string
}

// NotifyDroppedName is the counter fed by the toast dispatcher rather than a MetricID.
const (
	NotifyDroppedName = "suvclient_notify_dropped_total"
	NotifyDroppedHelp = "Toasts dropped because the dispatcher buffer was full."
)

var CounterDefs = []CounterDef{
	{ID: suvclient.MetricRequest, Name: "suvclient_requests_total", Help: "Requests handed to the transport."},
	{ID: suvclient.MetricRequestError, Name: "suvclient_request_errors_total", Help: "Requests that failed without a response."},
	{ID: suvclient.MetricUnauthenticated, Name: "suvclient_unauthenticated_total", Help: "401 replies that redirected to the login route."},
	{ID: suvclient.MetricCrossOrigin, Name: "suvclient_cross_origin_requests_total", Help: "Requests sent to a foreign origin without credentials."},
	{ID: suvclient.MetricNavigation, Name: "suvclient_navigations_total", Help: "Client-side navigations."},
	{ID: suvclient.MetricDecodeFailure, Name: "suvclient_decode_failures_total", Help: "Response bodies that were not valid JSON."},
	{ID: suvclient.MetricSessionHit, Name: "suvclient_session_hits_total", Help: "Session checks that returned a user."},
	{ID: suvclient.MetricSessionMiss, Name: "suvclient_session_misses_total", Help: "Session checks that returned no user."},
	{ID: suvclient.MetricLoginSuccess, Name: "suvclient_login_success_total", Help: "Accepted logins."},
	{ID: suvclient.MetricLoginFailure, Name: "suvclient_login_failure_total", Help: "Rejected logins."},
	{ID: suvclient.MetricLogout, Name: "suvclient_logout_total", Help: "Logout calls."},
	{ID: suvclient.MetricNotification, Name: "suvclient_notifications_total", Help: "Toasts handed to the dispatcher."},
}

var HistogramDefs = []HistogramDef{
	{ID: suvclient.MetricRequestLatency, Name: "suvclient_request_latency_seconds", Help: "Request latency histogram."},
}

// HistogramBounds are the upper bounds of the eight latency buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix spells HistogramBounds for use in instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
