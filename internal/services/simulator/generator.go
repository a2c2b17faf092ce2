// Package simulator produces synthetic raw events in the three device wire
// shapes, for exercising the ingestion path end to end. It is a producer
// only; nothing in the engine depends on it.
package simulator

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/agrisense/agrisense/internal/convert"
	"github.com/agrisense/agrisense/internal/model"
)

// SensorSpec describes one simulated device. The type is fixed per device,
// as in a real fleet.
type SensorSpec struct {
	ID   string
	Type model.SensorType
	Lat  float64
	Lon  float64
}

// RandomFleet builds n devices scattered around a center point, each with a
// random type.
func RandomFleet(rng *rand.Rand, n int, centerLat, centerLon float64) []SensorSpec {
	fleet := make([]SensorSpec, 0, n)
	for i := 0; i < n; i++ {
		st := model.SensorTypes[rng.Intn(len(model.SensorTypes))]
		fleet = append(fleet, SensorSpec{
			ID:   fmt.Sprintf("sensor_%04x", rng.Intn(1<<16)),
			Type: st,
			Lat:  centerLat + (rng.Float64()-0.5)*0.2,
			Lon:  centerLon + (rng.Float64()-0.5)*0.2,
		})
	}
	return fleet
}

// Generator keeps a slow random walk per parameter so consecutive readings
// look like weather, not noise.
type Generator struct {
	mu          sync.Mutex
	rng         *rand.Rand
	humidity    float64 // 0-100 percent
	temperature float64 // Celsius
}

func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{
		rng:         rng,
		humidity:    40 + rng.Float64()*30,
		temperature: 5 + rng.Float64()*20,
	}
}

func (g *Generator) step() (humidity, temperature float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.humidity = clamp(g.humidity+(g.rng.Float64()-0.5)*4, 5, 100)
	g.temperature = clamp(g.temperature+(g.rng.Float64()-0.5)*2, -15, 40)
	return g.humidity, g.temperature
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Next renders one raw event for the device in its native wire shape.
func (g *Generator) Next(spec SensorSpec, now time.Time) ([]byte, error) {
	humidity, temperature := g.step()
	ts := now.UTC().Format(time.RFC3339)

	var payload any
	switch spec.Type {
	case model.TypeIoT2000:
		payload = map[string]any{
			"sensor_type": spec.Type,
			"sensor_id":   spec.ID,
			"timestamp":   ts,
			"location":    map[string]any{"lon": spec.Lon, "lat": spec.Lat},
			"humidity":    humidity,
			"temperature": temperature,
		}
	case model.TypeSensormatic:
		payload = map[string]any{
			"sensor_type":  spec.Type,
			"sensor_id":    spec.ID,
			"timestamp":    ts,
			"geo_position": convert.FormatGeoPosition(spec.Lat, spec.Lon),
			"humidity":     convert.PercentToFraction(humidity),
			"temperature":  convert.CelsiusToKelvin(temperature),
		}
	case model.TypeMQTTMaster:
		payload = map[string]any{
			"sensor_type":   spec.Type,
			"sensor_id":     spec.ID,
			"timestamp":     ts,
			"location":      map[string]any{"longitude": spec.Lon, "latitude": spec.Lat},
			"soil_moisture": convert.PercentToFraction(humidity),
			"temperature":   temperature,
		}
	default:
		return nil, fmt.Errorf("simulator: unknown sensor type %q", spec.Type)
	}
	return json.Marshal(payload)
}
