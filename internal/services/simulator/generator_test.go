package simulator

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/agrisense/internal/model"
	"github.com/agrisense/agrisense/internal/normalize"
)

// Every generated payload must survive normalization: the simulator speaks
// the exact wire shapes the engine accepts.
func TestGeneratedPayloadsNormalize(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := NewGenerator(rng)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, st := range model.SensorTypes {
		spec := SensorSpec{ID: "sensor_test", Type: st, Lat: 48.1, Lon: 16.3}
		for i := 0; i < 10; i++ {
			payload, err := g.Next(spec, now)
			require.NoError(t, err)

			rec, err := normalize.Normalize(payload)
			require.NoError(t, err, "type %s payload %s", st, payload)
			assert.Equal(t, st, rec.SensorType)
			assert.Equal(t, "sensor_test", rec.SensorID)
			assert.Equal(t, now.Unix(), rec.Timestamp)
			assert.InDelta(t, 48.1, rec.Location.Lat, 1e-9)
			assert.InDelta(t, 16.3, rec.Location.Lon, 1e-9)
		}
	}
}

func TestRandomFleetTypesAreKnown(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	fleet := RandomFleet(rng, 20, 48.1, 16.3)
	require.Len(t, fleet, 20)
	for _, s := range fleet {
		assert.True(t, s.Type.Known())
		assert.NotEmpty(t, s.ID)
	}
}
