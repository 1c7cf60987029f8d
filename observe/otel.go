package observe

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter turns each Event into an instant OpenTelemetry span,
// grounded on the teacher's emit.OTelEmitter. Events represent points in
// time, not durations, so each span is started and ended immediately;
// a "duration_ms" Meta key, when present, is recorded as an attribute
// rather than used to stretch the span, keeping emission synchronous.
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter returns an OTelEmitter using tracer, typically obtained
// via otel.Tracer("virta/pipeline").
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

func (o *OTelEmitter) spanFor(ctx context.Context, event Event) {
	_, span := o.tracer.Start(ctx, event.Msg)
	defer span.End()

	span.SetAttributes(
		attribute.String("run_id", event.RunID),
		attribute.Int("level", event.Level),
		attribute.String("token", event.Token),
	)
	for k, v := range event.Meta {
		span.SetAttributes(attribute.String(k, fmt.Sprintf("%v", v)))
	}
	if errMsg, ok := event.Meta["error"].(string); ok {
		span.SetStatus(codes.Error, errMsg)
		span.RecordError(fmt.Errorf("%s", errMsg))
	}
}

// Emit starts and immediately ends a span for event.
func (o *OTelEmitter) Emit(event Event) {
	o.spanFor(context.Background(), event)
}

// EmitBatch creates one span per event, in order.
func (o *OTelEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, e := range events {
		o.spanFor(ctx, e)
	}
	return nil
}

// Flush is a no-op: spans are exported by the configured
// TracerProvider's span processor, not by the emitter itself. Call
// TracerProvider.ForceFlush on shutdown instead.
func (o *OTelEmitter) Flush(context.Context) error { return nil }
