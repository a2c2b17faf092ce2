// Package convert holds the pure unit and geo-string conversions shared by
// the normalizer and the simulator. Nothing here has side effects; the only
// failure mode is a malformed packed geo string.
package convert

import (
	"fmt"
	"strconv"
	"strings"
)

const kelvinOffset = 273.15

func PercentToFraction(f float64) float64 { return f / 100 }

func FractionToPercent(f float64) float64 { return f * 100 }

func CelsiusToKelvin(c float64) float64 { return c + kelvinOffset }

func KelvinToCelsius(k float64) float64 { return k - kelvinOffset }

// MalformedGeoError reports a packed geo string that does not match the
// "{lat}N/{lon}E" wire format. The parser never guesses or partially parses.
type MalformedGeoError struct {
	Input  string
	Reason string
}

func (e *MalformedGeoError) Error() string {
	return fmt.Sprintf("malformed geo string %q: %s", e.Input, e.Reason)
}

// ParseGeoPosition splits a packed "{lat}N/{lon}E" string into decimal
// degrees. Exactly two "/"-separated tokens, the first ending in N and the
// second in E; both remainders must parse as floats.
func ParseGeoPosition(s string) (lat, lon float64, err error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0, 0, &MalformedGeoError{Input: s, Reason: "expected exactly two '/'-separated tokens"}
	}
	latStr, ok := strings.CutSuffix(parts[0], "N")
	if !ok {
		return 0, 0, &MalformedGeoError{Input: s, Reason: "latitude token must end in 'N'"}
	}
	lonStr, ok := strings.CutSuffix(parts[1], "E")
	if !ok {
		return 0, 0, &MalformedGeoError{Input: s, Reason: "longitude token must end in 'E'"}
	}
	lat, err = strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, &MalformedGeoError{Input: s, Reason: "latitude is not a number"}
	}
	lon, err = strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, &MalformedGeoError{Input: s, Reason: "longitude is not a number"}
	}
	return lat, lon, nil
}

// FormatGeoPosition is the inverse of ParseGeoPosition. Shortest float
// formatting, so Parse(Format(lat, lon)) round-trips exactly. Negative
// coordinates keep their sign before the N/E suffix, as the devices send
// them.
func FormatGeoPosition(lat, lon float64) string {
	return FormatValue(lat) + "N/" + FormatValue(lon) + "E"
}

// FormatValue renders a float with the shortest representation that parses
// back exactly. Used for geo strings and for {value} substitution in
// recommendation templates (raw value, never rounded).
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
