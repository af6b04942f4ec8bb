package audit

import (
	"context"
	"log/slog"

	"civid/pkg/requestcontext"
)

// Publisher is the port services emit audit events through. Emission is
// fire-and-forget from the workflow's perspective: a failing audit pipeline
// must never block a booking or an issuance.
type Publisher interface {
	Emit(ctx context.Context, event Event)
}

// Emitter fans events out to the configured sinks: always the local store
// (via the worker inbox), and kafka when configured.
type Emitter struct {
	inbox  chan<- Event
	kafka  *KafkaPublisher
	logger *slog.Logger
}

func NewEmitter(inbox chan<- Event, kafka *KafkaPublisher, logger *slog.Logger) *Emitter {
	return &Emitter{inbox: inbox, kafka: kafka, logger: logger}
}

func (e *Emitter) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}

	select {
	case e.inbox <- event:
	default:
		// Inbox full: drop rather than block the workflow.
		e.logger.WarnContext(ctx, "audit inbox full, event dropped", "kind", event.Kind)
	}

	if e.kafka != nil {
		e.kafka.Publish(ctx, event)
	}
}

// NopPublisher discards events; used in tests that don't assert on audit.
type NopPublisher struct{}

func (NopPublisher) Emit(context.Context, Event) {}
