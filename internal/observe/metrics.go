// Package observe provides observability primitives for the bridge:
// OpenTelemetry metrics and request tracing glue.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still
// be scraped via the standard /metrics endpoint when the harness serves one.
// A package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all bridge metrics.
const meterName = "github.com/soundctl/livebridge"

// Metrics holds all OpenTelemetry metric instruments for the bridge.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// DispatchDuration tracks full request dispatch latency. Use with
	// attributes: attribute.String("type", ...), attribute.String("status", ...)
	DispatchDuration metric.Float64Histogram

	// MainThreadHopDuration tracks how long handlers wait for and spend on
	// the DAW main thread.
	MainThreadHopDuration metric.Float64Histogram

	// FrameBytes tracks the size of complete inbound frames.
	FrameBytes metric.Int64Histogram

	// Requests counts dispatched requests. Use with attributes:
	//   attribute.String("type", ...), attribute.String("status", ...)
	Requests metric.Int64Counter

	// Timeouts counts main-thread hops that exceeded the bridge budget.
	Timeouts metric.Int64Counter

	// ProtocolErrors counts malformed frames.
	ProtocolErrors metric.Int64Counter

	// ActiveConnections tracks currently connected clients.
	ActiveConnections metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// a loopback request/response protocol whose worst case is the 10s
// main-thread budget.
var latencyBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.DispatchDuration, err = m.Float64Histogram("livebridge.dispatch.duration",
		metric.WithDescription("Latency of full request dispatch."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.MainThreadHopDuration, err = m.Float64Histogram("livebridge.mainthread.duration",
		metric.WithDescription("Wait plus execution time of main-thread hops."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.FrameBytes, err = m.Int64Histogram("livebridge.frame.bytes",
		metric.WithDescription("Size of complete inbound frames."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if met.Requests, err = m.Int64Counter("livebridge.requests",
		metric.WithDescription("Dispatched requests by type and status."),
	); err != nil {
		return nil, err
	}
	if met.Timeouts, err = m.Int64Counter("livebridge.mainthread.timeouts",
		metric.WithDescription("Main-thread hops that exceeded the bridge budget."),
	); err != nil {
		return nil, err
	}
	if met.ProtocolErrors, err = m.Int64Counter("livebridge.protocol.errors",
		metric.WithDescription("Malformed inbound frames."),
	); err != nil {
		return nil, err
	}
	if met.ActiveConnections, err = m.Int64UpDownCounter("livebridge.connections.active",
		metric.WithDescription("Currently connected clients."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// DefaultMetrics returns the process-wide Metrics instance built from the
// global meter provider. Instrument creation errors are impossible with the
// global provider, so they are ignored here.
func DefaultMetrics() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics, _ = NewMetrics(otel.GetMeterProvider())
	})
	return defaultMetrics
}

// TypeStatus builds the standard attribute set for request instruments.
func TypeStatus(reqType, status string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("type", reqType),
		attribute.String("status", status),
	)
}

// RecordRequest records one dispatched request with its latency.
func (m *Metrics) RecordRequest(ctx context.Context, reqType, status string, seconds float64) {
	if m == nil {
		return
	}
	attrs := TypeStatus(reqType, status)
	m.Requests.Add(ctx, 1, attrs)
	m.DispatchDuration.Record(ctx, seconds, attrs)
}
