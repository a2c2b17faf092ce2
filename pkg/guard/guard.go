// Package guard implements the idempotency check for at-least-once inputs.
// A Guard is bound to one logical consumer name; the (consumer, event-id)
// pair is the idempotency key and the marker store is the sole source of
// truth for "already processed".
//
// Check and mark are two separate calls, not an atomic check-and-set: under
// concurrent retries of the same key both callers can observe "not
// processed" and proceed. The pipeline tolerates this by keeping the guarded
// side effects idempotent by content, so the guarantee is at-least-once with
// best-effort suppression.
package guard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/agrisense/agrisense/internal/store"
)

type Guard struct {
	consumer string
	markers  store.MarkerStore
}

// New binds a guard to a consumer name, e.g. "RecommendationFunction".
func New(consumer string, markers store.MarkerStore) *Guard {
	return &Guard{consumer: consumer, markers: markers}
}

// IsProcessed reports whether eventID was already fully processed by this
// consumer.
func (g *Guard) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	return g.markers.Exists(ctx, g.consumer, eventID)
}

// MarkProcessed records eventID as done. Call only after the guarded side
// effects have completed, so a crash in between leads to a retry rather
// than a lost event.
func (g *Guard) MarkProcessed(ctx context.Context, eventID string) error {
	return g.markers.Put(ctx, g.consumer, eventID)
}

// EventID derives a stable upstream event identifier from a raw payload.
// The MQTT transport carries no message id that survives redelivery, so the
// payload hash stands in for one: identical bytes are the same reading.
func EventID(payload []byte) string {
	h := sha256.Sum256(payload)
	return hex.EncodeToString(h[:])
}
