// Package observe provides application-wide observability primitives for
// Onyx: OpenTelemetry metrics, distributed tracing, structured logging, and
// HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
//
// All Record* methods are safe to call on a nil *Metrics, which lets library
// code accept an optional instance without guarding every call site.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Onyx metrics.
const meterName = "github.com/Gaurav02lk-beep/Onyx"

// Status attribute values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// GatewayDuration tracks remote inference latency. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("op", ...)
	GatewayDuration metric.Float64Histogram

	// --- Counters ---

	// GatewayRequests counts gateway calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("op", ...), attribute.String("status", ...)
	GatewayRequests metric.Int64Counter

	// Submissions counts primary queries. Use with attributes:
	//   attribute.String("mode", ...), attribute.String("status", ...)
	Submissions metric.Int64Counter

	// SuggestionFetches counts suggestion lookups. Use with attribute:
	//   attribute.String("outcome", ...) (shown, empty, stale, error)
	SuggestionFetches metric.Int64Counter

	// Narrations counts finished narration runs. Use with attribute:
	//   attribute.String("outcome", ...) (completed, stopped, error)
	Narrations metric.Int64Counter

	// Utterances counts sentences handed to speech playback.
	Utterances metric.Int64Counter

	// ImageGenerations counts forge runs. Use with attribute:
	//   attribute.String("status", ...)
	ImageGenerations metric.Int64Counter

	// --- Error counters ---

	// GatewayErrors counts gateway failures. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("op", ...)
	GatewayErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live search sessions.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("route", ...), attribute.Int("status", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// hosted model round trips.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.GatewayDuration, err = m.Float64Histogram("onyx.gateway.duration",
		metric.WithDescription("Latency of remote inference calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.GatewayRequests, err = m.Int64Counter("onyx.gateway.requests",
		metric.WithDescription("Total gateway calls by provider, operation, and status."),
	); err != nil {
		return nil, err
	}
	if met.Submissions, err = m.Int64Counter("onyx.search.submissions",
		metric.WithDescription("Total primary queries by mode and status."),
	); err != nil {
		return nil, err
	}
	if met.SuggestionFetches, err = m.Int64Counter("onyx.suggestions.fetches",
		metric.WithDescription("Total suggestion lookups by outcome."),
	); err != nil {
		return nil, err
	}
	if met.Narrations, err = m.Int64Counter("onyx.narrations",
		metric.WithDescription("Total narration runs by outcome."),
	); err != nil {
		return nil, err
	}
	if met.Utterances, err = m.Int64Counter("onyx.narration.utterances",
		metric.WithDescription("Total sentences handed to speech playback."),
	); err != nil {
		return nil, err
	}
	if met.ImageGenerations, err = m.Int64Counter("onyx.forge.generations",
		metric.WithDescription("Total image generations by status."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.GatewayErrors, err = m.Int64Counter("onyx.gateway.errors",
		metric.WithDescription("Total gateway errors by provider and operation."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("onyx.active_sessions",
		metric.WithDescription("Number of live search sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("onyx.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route, and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordGatewayRequest records one gateway call: the latency histogram, the
// request counter, and on failure the error counter.
func (m *Metrics) RecordGatewayRequest(ctx context.Context, provider, op, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.GatewayDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("op", op),
		),
	)
	m.GatewayRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("op", op),
			attribute.String("status", status),
		),
	)
	if status == StatusError {
		m.GatewayErrors.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("provider", provider),
				attribute.String("op", op),
			),
		)
	}
}

// RecordSubmission records a settled primary query.
func (m *Metrics) RecordSubmission(ctx context.Context, mode, status string) {
	if m == nil {
		return
	}
	m.Submissions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("mode", mode),
			attribute.String("status", status),
		),
	)
}

// RecordSuggestionFetch records the outcome of a suggestion lookup.
func (m *Metrics) RecordSuggestionFetch(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.SuggestionFetches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordNarration records the end of a narration run.
func (m *Metrics) RecordNarration(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.Narrations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordUtterance records one sentence handed to playback.
func (m *Metrics) RecordUtterance(ctx context.Context) {
	if m == nil {
		return
	}
	m.Utterances.Add(ctx, 1)
}

// RecordImageGeneration records a settled forge run.
func (m *Metrics) RecordImageGeneration(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.ImageGenerations.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(ctx, 1)
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(ctx, -1)
}
