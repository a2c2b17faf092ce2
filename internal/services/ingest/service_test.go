package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/agrisense/internal/model"
	"github.com/agrisense/agrisense/internal/normalize"
	"github.com/agrisense/agrisense/internal/store"
	"github.com/agrisense/agrisense/pkg/guard"
	"github.com/agrisense/agrisense/pkg/mqtt"
)

type nopConsumer struct{ handler mqtt.Handler }

func (n *nopConsumer) ConsumeMessage(context.Context) {}
func (n *nopConsumer) SetHandler(h mqtt.Handler)      { n.handler = h }

func newTestIngest() (*Service, *store.MemoryStore) {
	ms := store.NewMemoryStore()
	g := guard.New(ConsumerName, store.NewMemoryMarkerStore())
	return NewService(&nopConsumer{}, ms, g), ms
}

const validPayload = `{
	"sensor_type": "sensormatic",
	"sensor_id": "sensor_b2",
	"timestamp": "2025-01-01T00:00:00+00:00",
	"geo_position": "48.1N/16.3E",
	"humidity": 0.5,
	"temperature": 283.15
}`

func TestProcessEventStoresCanonicalRecord(t *testing.T) {
	ctx := context.Background()
	svc, ms := newTestIngest()

	payload := []byte(validPayload)
	require.NoError(t, svc.ProcessEvent(ctx, guard.EventID(payload), payload))

	require.Equal(t, 1, ms.Len())
	rec, ok, err := ms.Get(ctx, "sensor_b2", 1735689600)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 50.0, rec.Measurements[model.ParamHumidity], 1e-9)
	assert.InDelta(t, 10.0, rec.Measurements[model.ParamTemperature], 1e-9)
	assert.Equal(t, model.Location{Lat: 48.1, Lon: 16.3}, rec.Location)
}

func TestProcessEventIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, ms := newTestIngest()

	payload := []byte(validPayload)
	id := guard.EventID(payload)
	require.NoError(t, svc.ProcessEvent(ctx, id, payload))
	require.NoError(t, svc.ProcessEvent(ctx, id, payload)) // redelivery

	assert.Equal(t, 1, ms.Len(), "double ingestion must store exactly one record")
}

func TestProcessEventRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	svc, ms := newTestIngest()

	payload := []byte(`{"sensor_type":"LoRa-9000","sensor_id":"s","timestamp":"2025-01-01T00:00:00+00:00"}`)
	err := svc.ProcessEvent(ctx, guard.EventID(payload), payload)
	require.Error(t, err)
	var verr *normalize.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, normalize.KindUnknownSensorType, verr.Kind)
	assert.Equal(t, 0, ms.Len())

	// rejected events are not marked processed; a corrected retry with a
	// different payload (hence different ID) goes through normally
	good := []byte(validPayload)
	require.NoError(t, svc.ProcessEvent(ctx, guard.EventID(good), good))
	assert.Equal(t, 1, ms.Len())
}

type failingPutStore struct {
	*store.MemoryStore
	fail bool
}

func (f *failingPutStore) Put(ctx context.Context, rec model.CanonicalSensorRecord) error {
	if f.fail {
		return store.Transient("put", errors.New("store unreachable"))
	}
	return f.MemoryStore.Put(ctx, rec)
}

func TestProcessEventStoreFailureIsRetriable(t *testing.T) {
	ctx := context.Background()
	fs := &failingPutStore{MemoryStore: store.NewMemoryStore(), fail: true}
	g := guard.New(ConsumerName, store.NewMemoryMarkerStore())
	svc := NewService(&nopConsumer{}, fs, g)

	payload := []byte(validPayload)
	id := guard.EventID(payload)

	err := svc.ProcessEvent(ctx, id, payload)
	require.Error(t, err)
	assert.True(t, store.IsTransient(err))

	// the event was not marked processed, so the broker redelivery succeeds
	fs.fail = false
	require.NoError(t, svc.ProcessEvent(ctx, id, payload))
	assert.Equal(t, 1, fs.Len())
}
