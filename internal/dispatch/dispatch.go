// Package dispatch routes parsed requests to their handlers.
//
// The dispatcher owns the request lifecycle between the wire and the
// handlers: command lookup, the main-thread hop through the thread bridge,
// error-to-envelope mapping, and per-request telemetry. Handler errors never
// escape as panics or close connections; every request draws exactly one
// response.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/soundctl/livebridge/internal/bridge"
	"github.com/soundctl/livebridge/internal/facade"
	"github.com/soundctl/livebridge/internal/handlers"
	"github.com/soundctl/livebridge/internal/observe"
	"github.com/soundctl/livebridge/internal/protocol"
)

// tracerName is the instrumentation scope for dispatch spans.
const tracerName = "github.com/soundctl/livebridge/internal/dispatch"

// Dispatcher maps request types to handlers and runs them with the right
// thread affinity. Safe for concurrent use: concurrent dispatches serialize
// on the main thread only where the handler requires it.
type Dispatcher struct {
	registry map[string]handlers.Entry
	hctx     *handlers.Context
	bridge   *bridge.Bridge
	metrics  *observe.Metrics
	tracer   trace.Tracer
	log      *slog.Logger
}

// New creates a Dispatcher over the given handler context and thread bridge.
func New(hctx *handlers.Context, b *bridge.Bridge, metrics *observe.Metrics, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		registry: handlers.Registry(),
		hctx:     hctx,
		bridge:   b,
		metrics:  metrics,
		tracer:   otel.Tracer(tracerName),
		log:      log,
	}
}

// Dispatch runs one request and returns its wire response. Implements
// [protocol.DispatchFunc].
func (d *Dispatcher) Dispatch(ctx context.Context, req protocol.Request) protocol.Response {
	start := time.Now()
	ctx, span := d.tracer.Start(ctx, "dispatch",
		trace.WithAttributes(attribute.String("request.type", req.Type)))
	defer span.End()

	entry, ok := d.registry[req.Type]
	if !ok {
		d.log.Warn("unknown command", "type", req.Type)
		span.SetStatus(codes.Error, "unknown command")
		d.metrics.RecordRequest(ctx, req.Type, "unknown", time.Since(start).Seconds())
		return protocol.Error("Unknown command: " + req.Type)
	}

	params := handlers.Params(req.Params)
	var result any
	var err error
	if entry.MainThread {
		hopStart := time.Now()
		result, err = d.bridge.RunOnMain(func() (any, error) {
			return entry.Fn(d.hctx, params)
		})
		if d.metrics != nil {
			d.metrics.MainThreadHopDuration.Record(ctx, time.Since(hopStart).Seconds(),
				observe.TypeStatus(req.Type, statusOf(err)))
		}
	} else {
		result, err = entry.Fn(d.hctx, params)
	}

	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, bridge.ErrTimeout) && d.metrics != nil {
			d.metrics.Timeouts.Add(ctx, 1, observe.TypeStatus(req.Type, "timeout"))
		}
		d.log.Error("request failed",
			"type", req.Type,
			"kind", string(facade.KindOf(err)),
			"err", err,
			"elapsed", elapsed)
		span.SetStatus(codes.Error, err.Error())
		d.metrics.RecordRequest(ctx, req.Type, "error", elapsed.Seconds())
		return protocol.Error(err.Error())
	}

	d.log.Debug("request handled", "type", req.Type, "elapsed", elapsed)
	span.SetStatus(codes.Ok, "")
	d.metrics.RecordRequest(ctx, req.Type, "success", elapsed.Seconds())
	return protocol.Success(result)
}

func statusOf(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, bridge.ErrTimeout) {
		return "timeout"
	}
	return "error"
}
