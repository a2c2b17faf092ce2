// Package store defines the durable-storage boundary of the engine: a
// DynamoDB-shaped record store for canonical readings and a key-value marker
// store for idempotency keys. The engine only depends on the interfaces;
// backends live alongside (InfluxDB, Redis, in-memory).
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/agrisense/agrisense/internal/model"
)

// Page is one slice of a Scan. An empty Cursor means the scan is complete.
type Page struct {
	Records []model.CanonicalSensorRecord
	Cursor  string
}

// RecordStore persists canonical records. Records are immutable once put;
// retention is the backend's concern.
type RecordStore interface {
	Put(ctx context.Context, rec model.CanonicalSensorRecord) error
	// Get fetches one record by its (sensor_id, timestamp) key.
	Get(ctx context.Context, sensorID string, ts int64) (model.CanonicalSensorRecord, bool, error)
	// Scan returns records with timestamp >= sinceEpoch, one page at a time.
	// Pass the previous page's cursor to continue; "" starts a new scan.
	Scan(ctx context.Context, sinceEpoch int64, cursor string) (Page, error)
	// Query returns up to limit records for one sensor, optionally most
	// recent first.
	Query(ctx context.Context, sensorID string, mostRecentFirst bool, limit int) ([]model.CanonicalSensorRecord, error)
}

// MarkerStore records idempotency keys. Presence of a key is the sole source
// of truth for "already processed"; keys are never updated or deleted.
type MarkerStore interface {
	Exists(ctx context.Context, pk, sk string) (bool, error)
	Put(ctx context.Context, pk, sk string) error
}

// FetchWindow concatenates every Scan page with timestamp >= startEpoch.
// The caller computes startEpoch as triggerTime - windowDuration.
func FetchWindow(ctx context.Context, rs RecordStore, startEpoch int64) ([]model.CanonicalSensorRecord, error) {
	var out []model.CanonicalSensorRecord
	cursor := ""
	for {
		page, err := rs.Scan(ctx, startEpoch, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Records...)
		if page.Cursor == "" {
			return out, nil
		}
		cursor = page.Cursor
	}
}

// TransientError marks a store or dispatcher failure as safe to retry. The
// engine never retries internally; the external scheduler or broker
// redelivery does, relying on idempotency to suppress duplicates.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("%s: transient: %v", e.Op, e.Err) }

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable, tagged with the failing operation.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether err (or anything it wraps) is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
