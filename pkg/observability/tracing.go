package observability

import (
	"context"
	"fmt"

	"github.com/aretw0/furrow/pkg/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of furrow spans.
const TracerName = "github.com/aretw0/furrow"

// Tracer records lifecycle events as OpenTelemetry spans.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer from tp. A nil provider uses the global one.
func NewTracer(tp trace.TracerProvider) *Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{tracer: tp.Tracer(TracerName)}
}

// Hooks returns lifecycle hooks that emit one span per event.
// Epoch spans are backdated to cover the epoch duration.
func (t *Tracer) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEpoch: func(ctx context.Context, e *domain.EpochEvent) {
			_, span := t.tracer.Start(ctx, "furrow.epoch",
				trace.WithTimestamp(e.Timestamp.Add(-e.Duration)),
				trace.WithAttributes(
					attribute.String("furrow.session_id", e.SessionID),
					attribute.String("furrow.strategy", e.Strategy),
					attribute.Int("furrow.step", e.Step),
					attribute.Int("furrow.fanout", e.Fanout),
					attribute.Int("furrow.active", e.Pools[domain.PoolActive]),
					attribute.Int("furrow.deferred", e.Pools[domain.PoolDeferred]),
				),
			)
			span.End(trace.WithTimestamp(e.Timestamp))
		},
		OnGuardTrip: func(ctx context.Context, e *domain.GuardEvent) {
			_, span := t.tracer.Start(ctx, "furrow.guard",
				trace.WithAttributes(
					attribute.String("furrow.session_id", e.SessionID),
					attribute.Int("furrow.step", e.Step),
					attribute.String("furrow.reason", string(e.Reason)),
					attribute.Int("furrow.total", e.Total),
					attribute.Int("furrow.threshold", e.Threshold),
				),
			)
			span.SetStatus(codes.Error, fmt.Sprintf("guard tripped: %s", e.Reason))
			span.End()
		},
		OnRestart: func(ctx context.Context, e *domain.RestartEvent) {
			_, span := t.tracer.Start(ctx, "furrow.restart",
				trace.WithAttributes(
					attribute.String("furrow.session_id", e.SessionID),
					attribute.String("furrow.strategy", e.Strategy),
					attribute.Int("furrow.step", e.Step),
					attribute.Bool("furrow.forced", e.Forced),
				),
			)
			span.End()
		},
	}
}
