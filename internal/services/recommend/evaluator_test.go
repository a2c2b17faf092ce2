package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/agrisense/internal/model"
	"github.com/agrisense/agrisense/internal/profile"
)

func mqttMasterProfile() profile.Profile {
	p, ok := profile.Default().Lookup(model.TypeMQTTMaster)
	if !ok {
		panic("no MQTT-Master profile")
	}
	return p
}

func masterRecord(measurements map[string]float64) model.CanonicalSensorRecord {
	return model.CanonicalSensorRecord{
		SensorType:   model.TypeMQTTMaster,
		SensorID:     "sensor_1",
		Timestamp:    1735689600,
		Location:     model.Location{Lat: 48.1, Lon: 16.3},
		Measurements: measurements,
	}
}

func TestEvaluateLowSoilMoisture(t *testing.T) {
	rec := masterRecord(map[string]float64{
		model.ParamSoilMoisture: 25,
		model.ParamTemperature:  10,
	})
	got := Evaluate(rec, mqttMasterProfile(), LocationString(rec.Location))
	require.Len(t, got, 1)
	assert.Equal(t,
		"Sensor (Lat 48.1, Lon 16.3): Soil moisture is critically low (25%). Consider watering immediately.",
		got[0].Text)
	assert.Equal(t, model.ParamSoilMoisture, got[0].Parameter)
	assert.Equal(t, model.DirectionLow, got[0].Direction)
	assert.Equal(t, "sensor_1", got[0].SensorID)
}

func TestEvaluateBoundaryPolicy(t *testing.T) {
	p := mqttMasterProfile() // soil_moisture [30, 95]
	loc := LocationString(model.Location{Lat: 48.1, Lon: 16.3})
	eps := 1e-6

	// exactly min and exactly max are in range
	for _, v := range []float64{30, 95} {
		got := Evaluate(masterRecord(map[string]float64{model.ParamSoilMoisture: v}), p, loc)
		assert.Empty(t, got, "value %v", v)
	}

	low := Evaluate(masterRecord(map[string]float64{model.ParamSoilMoisture: 30 - eps}), p, loc)
	require.Len(t, low, 1)
	assert.Equal(t, model.DirectionLow, low[0].Direction)

	high := Evaluate(masterRecord(map[string]float64{model.ParamSoilMoisture: 95 + eps}), p, loc)
	require.Len(t, high, 1)
	assert.Equal(t, model.DirectionHigh, high[0].Direction)
}

func TestEvaluateFollowsProfileOrder(t *testing.T) {
	// both parameters violated: output follows the profile's declaration
	// order (soil_moisture before temperature), not map iteration order
	rec := masterRecord(map[string]float64{
		model.ParamTemperature:  40,
		model.ParamSoilMoisture: 5,
	})
	got := Evaluate(rec, mqttMasterProfile(), LocationString(rec.Location))
	require.Len(t, got, 2)
	assert.Equal(t, model.ParamSoilMoisture, got[0].Parameter)
	assert.Equal(t, model.ParamTemperature, got[1].Parameter)
}

func TestEvaluateIgnoresUnknownParameters(t *testing.T) {
	rec := masterRecord(map[string]float64{
		"wind_speed":           250, // not in the profile: not interesting
		model.ParamTemperature: 10,
	})
	got := Evaluate(rec, mqttMasterProfile(), LocationString(rec.Location))
	assert.Empty(t, got)
}

func TestEvaluateValueNotRounded(t *testing.T) {
	rec := masterRecord(map[string]float64{model.ParamSoilMoisture: 25.37})
	got := Evaluate(rec, mqttMasterProfile(), LocationString(rec.Location))
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Text, "(25.37%)")
}
