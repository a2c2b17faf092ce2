package recommend

import (
	"context"
	"log"
	"time"

	"github.com/agrisense/agrisense/internal/metrics"
	"github.com/agrisense/agrisense/internal/profile"
	"github.com/agrisense/agrisense/internal/store"
	"github.com/agrisense/agrisense/pkg/guard"
	"github.com/agrisense/agrisense/pkg/telegram"
)

// ConsumerName scopes the tick idempotency keys.
const ConsumerName = "RecommendationFunction"

const (
	defaultWindow   = 30 * time.Minute
	defaultInterval = 30 * time.Minute
)

// Service runs the scheduled recommendation pass: one windowed fetch, one
// evaluation sweep, one dispatched message per tick. Idempotency is keyed on
// the tick, not on records, so a partially completed pass can be safely
// re-triggered without double-notifying.
type Service struct {
	records    store.RecordStore
	guard      *guard.Guard
	dispatcher telegram.Dispatcher
	profiles   profile.Table
	window     time.Duration
	interval   time.Duration
}

func NewService(records store.RecordStore, g *guard.Guard, dispatcher telegram.Dispatcher, profiles profile.Table, window, interval time.Duration) *Service {
	if window <= 0 {
		window = defaultWindow
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		records:    records,
		guard:      g,
		dispatcher: dispatcher,
		profiles:   profiles,
		window:     window,
		interval:   interval,
	}
}

// RunOnce executes a single pass for the given trigger. A transient store or
// dispatcher failure leaves the tick unmarked, so the scheduler may retry
// the whole pass.
func (s *Service) RunOnce(ctx context.Context, tickID string, triggerTime time.Time) error {
	done, err := s.guard.IsProcessed(ctx, tickID)
	if err != nil {
		return err
	}
	if done {
		log.Printf("recommend: tick %s already processed", tickID)
		metrics.DuplicatesSuppressed.Inc()
		return nil
	}

	metrics.RecommendationTicks.Inc()

	startEpoch := triggerTime.Add(-s.window).Unix()
	records, err := store.FetchWindow(ctx, s.records, startEpoch)
	if err != nil {
		metrics.StoreFailures.WithLabelValues("scan").Inc()
		return err
	}
	log.Printf("recommend: tick %s evaluating %d records since %d", tickID, len(records), startEpoch)

	message := Aggregate(records, s.profiles)
	if err := s.dispatcher.SendMessage(ctx, message); err != nil {
		metrics.DispatchFailures.Inc()
		return err
	}
	metrics.RecommendationsSent.Inc()

	if err := s.guard.MarkProcessed(ctx, tickID); err != nil {
		// The message is out; a retry of this tick re-sends it. Accepted:
		// at-least-once with best-effort suppression.
		metrics.StoreFailures.WithLabelValues("mark").Inc()
		return err
	}
	return nil
}

// Run drives RunOnce from a ticker until ctx is cancelled. The tick ID is
// the RFC3339 trigger time, mirroring how the upstream scheduler names its
// events.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("recommend: running every %s over a %s window", s.interval, s.window)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			trigger := now.UTC()
			if err := s.RunOnce(ctx, trigger.Format(time.RFC3339), trigger); err != nil {
				log.Printf("recommend: pass failed: %v", err)
			}
		}
	}
}
