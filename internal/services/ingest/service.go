// Package ingest consumes raw sensor events from the broker, normalizes
// them and persists the canonical records, suppressing QoS-1 redeliveries
// via the idempotency guard.
package ingest

import (
	"context"
	"errors"
	"log"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/agrisense/agrisense/internal/metrics"
	"github.com/agrisense/agrisense/internal/normalize"
	"github.com/agrisense/agrisense/internal/store"
	"github.com/agrisense/agrisense/pkg/guard"
	"github.com/agrisense/agrisense/pkg/mqtt"
)

// ConsumerName scopes the ingestion idempotency keys.
const ConsumerName = "IngestFunction"

type Service struct {
	consumer mqtt.IConsumer
	records  store.RecordStore
	guard    *guard.Guard
}

func NewService(consumer mqtt.IConsumer, records store.RecordStore, g *guard.Guard) *Service {
	s := &Service{consumer: consumer, records: records, guard: g}
	consumer.SetHandler(s.handleRaw)
	return s
}

// Start consumes until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.consumer.ConsumeMessage(ctx)
}

// handleRaw adapts broker deliveries to ProcessEvent. Validation failures
// are terminal, so they must not block the stream; transient failures are
// returned so the delivery is logged and the broker can redeliver.
func (s *Service) handleRaw(topic string, msg paho.Message) error {
	payload := msg.Payload()
	err := s.ProcessEvent(context.Background(), guard.EventID(payload), payload)
	var verr *normalize.ValidationError
	if errors.As(err, &verr) {
		log.Printf("ingest: rejected event on %s: %v (payload=%s)", topic, verr, payload)
		return nil
	}
	return err
}

// ProcessEvent runs one raw event through guard, normalization and the
// record store. Processing is stateless per event and safe to run
// concurrently; only concurrent retries of the same event ID can race the
// check-then-mark, which the content-idempotent Put absorbs.
func (s *Service) ProcessEvent(ctx context.Context, eventID string, payload []byte) error {
	done, err := s.guard.IsProcessed(ctx, eventID)
	if err != nil {
		return err
	}
	if done {
		metrics.DuplicatesSuppressed.Inc()
		log.Printf("ingest: event %.12s already processed", eventID)
		return nil
	}

	rec, err := normalize.Normalize(payload)
	if err != nil {
		var verr *normalize.ValidationError
		if errors.As(err, &verr) {
			metrics.ValidationFailures.WithLabelValues(string(verr.Kind)).Inc()
		}
		return err
	}

	if err := s.records.Put(ctx, rec); err != nil {
		metrics.StoreFailures.WithLabelValues("put").Inc()
		return err
	}
	if err := s.guard.MarkProcessed(ctx, eventID); err != nil {
		metrics.StoreFailures.WithLabelValues("mark").Inc()
		return err
	}

	metrics.EventsIngested.WithLabelValues(string(rec.SensorType)).Inc()
	log.Printf("ingest: stored %s reading from %s at %d", rec.SensorType, rec.SensorID, rec.Timestamp)
	return nil
}
