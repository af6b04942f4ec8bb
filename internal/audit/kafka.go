package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/twmb/franz-go/pkg/kgo"

	"civid/internal/platform/config"
	"civid/pkg/platform/circuit"
)

// probeEvery is how many publishes are skipped between probes while the
// breaker is open.
const probeEvery = 32

// KafkaPublisher ships audit events to the configured kafka topic. Produce is
// asynchronous; delivery failures are logged and never surfaced to the
// emitting workflow. A circuit breaker stops the publisher from queueing
// against a dead broker: while open, events fall back to log-only and a
// periodic probe record tests for recovery.
type KafkaPublisher struct {
	client  *kgo.Client
	topic   string
	breaker *circuit.Breaker
	skipped atomic.Uint64
	logger  *slog.Logger
}

// NewKafkaPublisher connects a producer. Returns nil if no brokers are
// configured (kafka disabled; the in-process sink still records events).
func NewKafkaPublisher(cfg config.KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	return &KafkaPublisher{
		client:  client,
		topic:   cfg.Topic,
		breaker: circuit.New("audit-kafka", circuit.WithFailureThreshold(5)),
		logger:  logger,
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "audit event encode failed", "kind", event.Kind, "error", err)
		return
	}

	if p.breaker.IsOpen() && p.skipped.Add(1)%probeEvery != 0 {
		p.logger.WarnContext(ctx, "audit event dropped to log, kafka circuit open",
			"kind", event.Kind, "subject", event.Subject)
		return
	}

	record := &kgo.Record{
		Key:   []byte(event.Subject.String()),
		Value: value,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("audit event delivery failed", "kind", event.Kind, "error", err)
			if _, change := p.breaker.RecordFailure(); change.Opened {
				p.logger.Error("kafka circuit opened, audit events fall back to log")
			}
			return
		}
		if _, change := p.breaker.RecordSuccess(); change.Closed {
			p.logger.Info("kafka circuit closed, audit delivery recovered")
		}
	})
}

// Close flushes outstanding records and releases the client.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush audit events: %w", err)
	}
	p.client.Close()
	return nil
}
