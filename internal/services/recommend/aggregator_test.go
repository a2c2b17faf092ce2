package recommend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/agrisense/internal/model"
	"github.com/agrisense/agrisense/internal/profile"
)

func TestAggregateNominalSentinel(t *testing.T) {
	records := []model.CanonicalSensorRecord{
		masterRecord(map[string]float64{model.ParamSoilMoisture: 50, model.ParamTemperature: 20}),
		masterRecord(map[string]float64{model.ParamSoilMoisture: 60}),
	}
	got := Aggregate(records, profile.Default())
	assert.Equal(t, NominalMessage, got)
	assert.NotEmpty(t, got, "sentinel must never be the empty string")

	// no records at all also yields the sentinel
	assert.Equal(t, NominalMessage, Aggregate(nil, profile.Default()))
}

func TestAggregatePreservesRecordOrder(t *testing.T) {
	mk := func(sensorID string, moisture float64) model.CanonicalSensorRecord {
		r := masterRecord(map[string]float64{model.ParamSoilMoisture: moisture})
		r.SensorID = sensorID
		return r
	}
	// many records so a reordering by parallel evaluation would be caught
	var records []model.CanonicalSensorRecord
	for i := 0; i < 32; i++ {
		records = append(records, mk("s", 5)) // all violate low
	}
	records = append(records, mk("s", 99)) // violates high, must come last

	got := Aggregate(records, profile.Default())
	parts := strings.Split(got, "\n\n")
	require.Len(t, parts, 33)
	for _, p := range parts[:32] {
		assert.Contains(t, p, "critically low")
	}
	assert.Contains(t, parts[32], "too high")
}

func TestAggregateSkipsUnprofiledRecords(t *testing.T) {
	// only the built-in MQTT-Master profile is configured
	tb, err := profile.Build([]profile.Profile{
		{SensorType: model.TypeMQTTMaster, Parameters: []profile.ParamSpec{
			{Name: model.ParamSoilMoisture, Min: 30, Max: 95,
				LowMessage: "{location}: low ({value}%)", HighMessage: "{location}: high ({value}%)"},
		}},
	})
	require.NoError(t, err)

	iot := masterRecord(map[string]float64{model.ParamHumidity: 1})
	iot.SensorType = model.TypeIoT2000 // no profile: skipped, batch continues

	records := []model.CanonicalSensorRecord{
		iot,
		masterRecord(map[string]float64{model.ParamSoilMoisture: 5}),
	}
	got := Aggregate(records, tb)
	assert.Equal(t, "Sensor (Lat 48.1, Lon 16.3): low (5%)", got)
}

func TestAggregateJoinsWithBlankLine(t *testing.T) {
	records := []model.CanonicalSensorRecord{
		masterRecord(map[string]float64{model.ParamSoilMoisture: 5}),
		masterRecord(map[string]float64{model.ParamTemperature: 45}),
	}
	got := Aggregate(records, profile.Default())
	parts := strings.Split(got, "\n\n")
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0], "Soil moisture is critically low")
	assert.Contains(t, parts[1], "high temperature")
}
