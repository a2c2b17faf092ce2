package store

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/agrisense/agrisense/internal/model"
)

// MemoryStore is an in-process RecordStore for tests and local runs. It
// honors the same paging contract as the durable backends so window-fetch
// logic can be exercised against it.
type MemoryStore struct {
	mu       sync.RWMutex
	records  []model.CanonicalSensorRecord
	pageSize int
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{pageSize: 100} }

// SetPageSize shrinks scan pages so tests can cover multi-page fetches.
func (m *MemoryStore) SetPageSize(n int) {
	if n > 0 {
		m.pageSize = n
	}
}

func (m *MemoryStore) Put(_ context.Context, rec model.CanonicalSensorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Same (sensor, timestamp) key overwrites: a put retry is content-idempotent.
	for i, r := range m.records {
		if r.SensorID == rec.SensorID && r.Timestamp == rec.Timestamp {
			m.records[i] = rec
			return nil
		}
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, sensorID string, ts int64) (model.CanonicalSensorRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.records {
		if r.SensorID == sensorID && r.Timestamp == ts {
			return r, true, nil
		}
	}
	return model.CanonicalSensorRecord{}, false, nil
}

func (m *MemoryStore) Scan(_ context.Context, sinceEpoch int64, cursor string) (Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return Page{}, Transient("memory scan", err)
		}
		start = n
	}

	var matched []model.CanonicalSensorRecord
	for _, r := range m.records {
		if r.Timestamp >= sinceEpoch {
			matched = append(matched, r)
		}
	}
	if start >= len(matched) {
		return Page{}, nil
	}
	end := start + m.pageSize
	next := ""
	if end < len(matched) {
		next = strconv.Itoa(end)
	} else {
		end = len(matched)
	}
	return Page{Records: matched[start:end], Cursor: next}, nil
}

func (m *MemoryStore) Query(_ context.Context, sensorID string, mostRecentFirst bool, limit int) ([]model.CanonicalSensorRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.CanonicalSensorRecord
	for _, r := range m.records {
		if r.SensorID == sensorID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if mostRecentFirst {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].Timestamp < out[j].Timestamp
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len reports the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// MemoryMarkerStore is an in-process MarkerStore for tests and local runs.
type MemoryMarkerStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func NewMemoryMarkerStore() *MemoryMarkerStore {
	return &MemoryMarkerStore{seen: make(map[string]bool)}
}

func (m *MemoryMarkerStore) Exists(_ context.Context, pk, sk string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[pk+"/"+sk], nil
}

func (m *MemoryMarkerStore) Put(_ context.Context, pk, sk string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[pk+"/"+sk] = true
	return nil
}
