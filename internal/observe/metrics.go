// Package observe provides application-wide observability primitives for
// EmberFX: OpenTelemetry metrics, tracing helpers, and trace-aware logging.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped from the optional /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all EmberFX metrics.
const meterName = "github.com/emberfx/emberfx"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// ToolDuration tracks end-to-end tool handler latency. Use with
	// attribute.String("tool", ...).
	ToolDuration metric.Float64Histogram

	// UpstreamDuration tracks latency of individual upstream API calls.
	// Use with attribute.String("operation", ...).
	UpstreamDuration metric.Float64Histogram

	// PollChecks tracks the number of status checks spent per poll session.
	PollChecks metric.Int64Histogram

	// ToolCalls counts tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// UpstreamErrors counts failed upstream calls. Use with attribute:
	//   attribute.String("operation", ...)
	UpstreamErrors metric.Int64Counter

	// ActivePolls tracks the number of poll sessions currently blocking a
	// tool invocation.
	ActivePolls metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Tool
// calls range from sub-second catalogue lookups to two-minute poll sessions.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15, 30, 60, 120, 180,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ToolDuration, err = m.Float64Histogram("emberfx.tool.duration",
		metric.WithDescription("End-to-end tool handler latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.UpstreamDuration, err = m.Float64Histogram("emberfx.upstream.duration",
		metric.WithDescription("Latency of upstream generation API calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PollChecks, err = m.Int64Histogram("emberfx.poll.checks",
		metric.WithDescription("Status checks performed per poll session."),
	); err != nil {
		return nil, err
	}

	if met.ToolCalls, err = m.Int64Counter("emberfx.tool.calls",
		metric.WithDescription("Total tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.UpstreamErrors, err = m.Int64Counter("emberfx.upstream.errors",
		metric.WithDescription("Total failed upstream API calls by operation."),
	); err != nil {
		return nil, err
	}

	if met.ActivePolls, err = m.Int64UpDownCounter("emberfx.active_polls",
		metric.WithDescription("Poll sessions currently in flight."),
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

// RecordToolCall records a tool invocation with its duration in seconds.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string, seconds float64) {
	m.ToolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	))
	m.ToolDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("tool", tool)))
}

// RecordUpstreamCall records the latency of one upstream API call.
func (m *Metrics) RecordUpstreamCall(ctx context.Context, operation string, seconds float64) {
	m.UpstreamDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("operation", operation)),
	)
}

// RecordUpstreamError records one failed upstream call.
func (m *Metrics) RecordUpstreamError(ctx context.Context, operation string) {
	m.UpstreamErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("operation", operation)),
	)
}

// RecordPollSession records the check count of a completed poll session.
func (m *Metrics) RecordPollSession(ctx context.Context, checks int) {
	m.PollChecks.Record(ctx, int64(checks))
}

// PollStarted marks a poll session as in flight.
func (m *Metrics) PollStarted(ctx context.Context) {
	m.ActivePolls.Add(ctx, 1)
}

// PollFinished marks a poll session as done.
func (m *Metrics) PollFinished(ctx context.Context) {
	m.ActivePolls.Add(ctx, -1)
}
