// Package normalize maps raw device payloads into the canonical record.
// Each supported sensor type gets an entry in a closed strategy table; there
// is no string branching at the call sites, and unknown types are a hard
// validation error. Normalize is pure and safe for concurrent use.
package normalize

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/agrisense/agrisense/internal/convert"
	"github.com/agrisense/agrisense/internal/model"
)

// envelope carries the fields shared by every payload variant.
type envelope struct {
	SensorType string `json:"sensor_type"`
	SensorID   string `json:"sensor_id"`
	Timestamp  string `json:"timestamp"`
}

// strategy decodes the type-specific remainder of a payload into location
// and canonical measurements.
type strategy func(payload []byte) (model.Location, map[string]float64, error)

// strategies is the closed dispatch table. Adding a sensor type means adding
// an entry here plus its constant in internal/model, nothing else.
var strategies = map[model.SensorType]strategy{
	model.TypeIoT2000:     decodeIoT2000,
	model.TypeSensormatic: decodeSensormatic,
	model.TypeMQTTMaster:  decodeMQTTMaster,
}

// physicalRange bounds what a device can physically report, post-conversion.
// Violations are rejected, never clamped.
type physicalRange struct{ min, max float64 }

var physicalRanges = map[string]physicalRange{
	model.ParamHumidity:     {0, 100},
	model.ParamSoilMoisture: {0, 100},
	model.ParamTemperature:  {-90, 60},
}

// Normalize validates a raw event and converts it to the canonical record.
// Identical input always yields an identical record.
func Normalize(payload []byte) (model.CanonicalSensorRecord, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return model.CanonicalSensorRecord{}, &ValidationError{Kind: KindMalformedPayload, Err: err}
	}

	// Envelope checks, in order, before any conversion.
	if strings.TrimSpace(env.SensorID) == "" {
		return model.CanonicalSensorRecord{}, missingField("sensor_id")
	}
	if strings.TrimSpace(env.Timestamp) == "" {
		return model.CanonicalSensorRecord{}, missingField("timestamp")
	}
	if strings.TrimSpace(env.SensorType) == "" {
		return model.CanonicalSensorRecord{}, missingField("sensor_type")
	}
	st := model.SensorType(env.SensorType)
	if !st.Known() {
		return model.CanonicalSensorRecord{}, &ValidationError{
			Kind: KindUnknownSensorType, Field: "sensor_type", Detail: env.SensorType,
		}
	}
	ts, err := parseTimestamp(env.Timestamp)
	if err != nil {
		return model.CanonicalSensorRecord{}, &ValidationError{
			Kind: KindBadTimestamp, Field: "timestamp", Detail: env.Timestamp, Err: err,
		}
	}

	loc, meas, err := strategies[st](payload)
	if err != nil {
		return model.CanonicalSensorRecord{}, err
	}

	for name, v := range meas {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return model.CanonicalSensorRecord{}, &ValidationError{
				Kind: KindOutOfRange, Field: name, Detail: "value is not finite",
			}
		}
		if r, ok := physicalRanges[name]; ok && (v < r.min || v > r.max) {
			return model.CanonicalSensorRecord{}, &ValidationError{
				Kind: KindOutOfRange, Field: name,
				Detail: convert.FormatValue(v) + " outside physical range",
			}
		}
	}

	return model.CanonicalSensorRecord{
		SensorType:   st,
		SensorID:     env.SensorID,
		Timestamp:    ts,
		Location:     loc,
		Measurements: meas,
	}, nil
}

// parseTimestamp accepts RFC3339 and zone-less ISO-8601 (taken as UTC),
// matching what the producers actually send.
func parseTimestamp(s string) (int64, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Unix(), nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

// --------------------- per-type decoders ---------------------

// IoT-2000: decimal-degree location object, humidity already 0-100 percent,
// temperature already Celsius.
func decodeIoT2000(payload []byte) (model.Location, map[string]float64, error) {
	var body struct {
		Location *struct {
			Lon *float64 `json:"lon"`
			Lat *float64 `json:"lat"`
		} `json:"location"`
		Humidity    *float64 `json:"humidity"`
		Temperature *float64 `json:"temperature"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return model.Location{}, nil, &ValidationError{Kind: KindMalformedPayload, Err: err}
	}
	switch {
	case body.Location == nil:
		return model.Location{}, nil, missingField("location")
	case body.Location.Lat == nil:
		return model.Location{}, nil, missingField("location.lat")
	case body.Location.Lon == nil:
		return model.Location{}, nil, missingField("location.lon")
	case body.Humidity == nil:
		return model.Location{}, nil, missingField("humidity")
	case body.Temperature == nil:
		return model.Location{}, nil, missingField("temperature")
	}
	return model.Location{Lat: *body.Location.Lat, Lon: *body.Location.Lon},
		map[string]float64{
			model.ParamHumidity:    *body.Humidity,
			model.ParamTemperature: *body.Temperature,
		}, nil
}

// sensormatic: packed "{lat}N/{lon}E" geo string, humidity as 0-1 fraction,
// temperature in Kelvin.
func decodeSensormatic(payload []byte) (model.Location, map[string]float64, error) {
	var body struct {
		GeoPosition *string  `json:"geo_position"`
		Humidity    *float64 `json:"humidity"`
		Temperature *float64 `json:"temperature"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return model.Location{}, nil, &ValidationError{Kind: KindMalformedPayload, Err: err}
	}
	switch {
	case body.GeoPosition == nil:
		return model.Location{}, nil, missingField("geo_position")
	case body.Humidity == nil:
		return model.Location{}, nil, missingField("humidity")
	case body.Temperature == nil:
		return model.Location{}, nil, missingField("temperature")
	}
	lat, lon, err := convert.ParseGeoPosition(*body.GeoPosition)
	if err != nil {
		return model.Location{}, nil, &ValidationError{Kind: KindMalformedGeo, Field: "geo_position", Err: err}
	}
	return model.Location{Lat: lat, Lon: lon},
		map[string]float64{
			model.ParamHumidity:    convert.FractionToPercent(*body.Humidity),
			model.ParamTemperature: convert.KelvinToCelsius(*body.Temperature),
		}, nil
}

// MQTT-Master: longitude/latitude location object, soil moisture as 0-1
// fraction, temperature already Celsius.
func decodeMQTTMaster(payload []byte) (model.Location, map[string]float64, error) {
	var body struct {
		Location *struct {
			Longitude *float64 `json:"longitude"`
			Latitude  *float64 `json:"latitude"`
		} `json:"location"`
		SoilMoisture *float64 `json:"soil_moisture"`
		Temperature  *float64 `json:"temperature"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return model.Location{}, nil, &ValidationError{Kind: KindMalformedPayload, Err: err}
	}
	switch {
	case body.Location == nil:
		return model.Location{}, nil, missingField("location")
	case body.Location.Latitude == nil:
		return model.Location{}, nil, missingField("location.latitude")
	case body.Location.Longitude == nil:
		return model.Location{}, nil, missingField("location.longitude")
	case body.SoilMoisture == nil:
		return model.Location{}, nil, missingField("soil_moisture")
	case body.Temperature == nil:
		return model.Location{}, nil, missingField("temperature")
	}
	return model.Location{Lat: *body.Location.Latitude, Lon: *body.Location.Longitude},
		map[string]float64{
			model.ParamSoilMoisture: convert.FractionToPercent(*body.SoilMoisture),
			model.ParamTemperature:  *body.Temperature,
		}, nil
}
