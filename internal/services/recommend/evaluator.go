// Package recommend evaluates recent canonical records against the
// per-sensor-type threshold profiles and turns violations into one
// aggregated, deterministically ordered notification.
package recommend

import (
	"fmt"
	"strings"

	"github.com/agrisense/agrisense/internal/convert"
	"github.com/agrisense/agrisense/internal/model"
	"github.com/agrisense/agrisense/internal/profile"
)

// LocationString renders a record's own coordinates the way users see them,
// independent of sensor type.
func LocationString(loc model.Location) string {
	return fmt.Sprintf("Sensor (Lat %s, Lon %s)", convert.FormatValue(loc.Lat), convert.FormatValue(loc.Lon))
}

// Evaluate checks one record against its profile. Violations come out in the
// profile's declared parameter order, so the result is deterministic.
// Parameters in the record but not in the profile are not interesting and
// are silently ignored. Values equal to a bound are in range.
func Evaluate(rec model.CanonicalSensorRecord, p profile.Profile, location string) []model.Recommendation {
	var out []model.Recommendation
	for _, ps := range p.Parameters {
		value, ok := rec.Measurements[ps.Name]
		if !ok {
			continue
		}
		switch {
		case value < ps.Min:
			out = append(out, model.Recommendation{
				Text:      renderTemplate(ps.LowMessage, location, value),
				Parameter: ps.Name,
				Direction: model.DirectionLow,
				SensorID:  rec.SensorID,
			})
		case value > ps.Max:
			out = append(out, model.Recommendation{
				Text:      renderTemplate(ps.HighMessage, location, value),
				Parameter: ps.Name,
				Direction: model.DirectionHigh,
				SensorID:  rec.SensorID,
			})
		}
	}
	return out
}

// renderTemplate substitutes the {location} and {value} placeholders. The
// value is the raw measurement, never rounded.
func renderTemplate(tmpl, location string, value float64) string {
	return strings.NewReplacer(
		"{location}", location,
		"{value}", convert.FormatValue(value),
	).Replace(tmpl)
}
