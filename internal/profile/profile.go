// Package profile holds the per-sensor-type threshold configuration: which
// parameters are interesting for a device family, their safe bounds, and the
// message templates rendered when a bound is violated. The table is loaded
// once at startup and read-only afterwards.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/agrisense/agrisense/internal/model"
)

// ParamSpec bounds one parameter. Values equal to Min or Max are in range;
// only strict violations trigger a message. Templates carry {location} and
// {value} placeholders.
type ParamSpec struct {
	Name        string  `json:"name"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	LowMessage  string  `json:"low_message"`
	HighMessage string  `json:"high_message"`
}

// Profile is the ordered parameter list for one sensor type. Order is part
// of the contract: evaluation emits violations in declaration order so the
// aggregated output is deterministic.
type Profile struct {
	SensorType model.SensorType `json:"sensor_type"`
	Parameters []ParamSpec      `json:"parameters"`
}

// Table maps sensor types to their profiles. Immutable after construction.
type Table map[model.SensorType]Profile

// Lookup returns the profile for t, reporting whether one is configured.
func (tb Table) Lookup(t model.SensorType) (Profile, bool) {
	p, ok := tb[t]
	return p, ok
}

// Default returns the built-in table, mirroring the deployed configuration.
func Default() Table {
	return mustBuild([]Profile{
		{
			SensorType: model.TypeMQTTMaster,
			Parameters: []ParamSpec{
				{
					Name: model.ParamSoilMoisture, Min: 30, Max: 95,
					LowMessage:  "{location}: Soil moisture is critically low ({value}%). Consider watering immediately.",
					HighMessage: "{location}: Soil moisture is too high ({value}%). Avoid overwatering.",
				},
				{
					Name: model.ParamTemperature, Min: -7, Max: 30,
					LowMessage:  "{location}: Soil sensor detected low temperature ({value}°C). Frost protection may be required.",
					HighMessage: "{location}: Soil sensor detected high temperature ({value}°C). Consider shading or cooling measures.",
				},
			},
		},
		{
			SensorType: model.TypeIoT2000,
			Parameters: []ParamSpec{
				{
					Name: model.ParamHumidity, Min: 30, Max: 95,
					LowMessage:  "{location}: Weather station reports low humidity ({value}%). Monitor conditions closely.",
					HighMessage: "{location}: Weather station reports high humidity ({value}%). Take precautions.",
				},
				{
					Name: model.ParamTemperature, Min: -7, Max: 30,
					LowMessage:  "{location}: Weather station reports low temperature ({value}°C). Frost protection recommended.",
					HighMessage: "{location}: Weather station reports high temperature ({value}°C). Cooling measures advised.",
				},
			},
		},
		{
			SensorType: model.TypeSensormatic,
			Parameters: []ParamSpec{
				{
					Name: model.ParamHumidity, Min: 30, Max: 95,
					LowMessage:  "{location}: Sensormatic reports low humidity ({value}%). Monitor conditions closely.",
					HighMessage: "{location}: Sensormatic reports high humidity ({value}%). Take precautions.",
				},
				{
					Name: model.ParamTemperature, Min: -7, Max: 30,
					LowMessage:  "{location}: Sensormatic reports low temperature ({value}°C). Frost protection may be required.",
					HighMessage: "{location}: Sensormatic reports high temperature ({value}°C). Cooling measures advised.",
				},
			},
		},
	})
}

// Load reads a profile table from a JSON file (array of Profile) and
// validates it. Used to override the built-in defaults per deployment.
func Load(path string) (Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	var list []Profile
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	return Build(list)
}

// Build validates a profile list and assembles the lookup table.
func Build(list []Profile) (Table, error) {
	tb := make(Table, len(list))
	for _, p := range list {
		if !p.SensorType.Known() {
			return nil, fmt.Errorf("profile for unknown sensor type %q", p.SensorType)
		}
		if _, dup := tb[p.SensorType]; dup {
			return nil, fmt.Errorf("duplicate profile for sensor type %q", p.SensorType)
		}
		if len(p.Parameters) == 0 {
			return nil, fmt.Errorf("profile %q has no parameters", p.SensorType)
		}
		seen := map[string]bool{}
		for _, ps := range p.Parameters {
			if strings.TrimSpace(ps.Name) == "" {
				return nil, fmt.Errorf("profile %q has a parameter without a name", p.SensorType)
			}
			if seen[ps.Name] {
				return nil, fmt.Errorf("profile %q declares parameter %q twice", p.SensorType, ps.Name)
			}
			seen[ps.Name] = true
			if ps.Min > ps.Max {
				return nil, fmt.Errorf("profile %q parameter %q: min %v > max %v", p.SensorType, ps.Name, ps.Min, ps.Max)
			}
			if ps.LowMessage == "" || ps.HighMessage == "" {
				return nil, fmt.Errorf("profile %q parameter %q: missing message template", p.SensorType, ps.Name)
			}
		}
		tb[p.SensorType] = p
	}
	return tb, nil
}

func mustBuild(list []Profile) Table {
	tb, err := Build(list)
	if err != nil {
		panic(err)
	}
	return tb
}
