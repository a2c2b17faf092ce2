package convert

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitRoundTrips(t *testing.T) {
	for _, v := range []float64{0, 0.5, 25, 48.1, 99.99, 100} {
		assert.InDelta(t, v, FractionToPercent(PercentToFraction(v)), 1e-9)
		assert.InDelta(t, v, KelvinToCelsius(CelsiusToKelvin(v)), 1e-9)
	}
	assert.InDelta(t, 10.0, KelvinToCelsius(283.15), 1e-9)
	assert.InDelta(t, 50.0, FractionToPercent(0.5), 1e-9)
}

func TestGeoRoundTrip(t *testing.T) {
	cases := []struct{ lat, lon float64 }{
		{48.1, 16.3},
		{0, 0},
		{-3.2, -71.05},
		{89.999999, 179.999999},
	}
	for _, c := range cases {
		lat, lon, err := ParseGeoPosition(FormatGeoPosition(c.lat, c.lon))
		require.NoError(t, err)
		assert.Equal(t, c.lat, lat)
		assert.Equal(t, c.lon, lon)
	}
}

func TestFormatGeoPosition(t *testing.T) {
	assert.Equal(t, "48.1N/16.3E", FormatGeoPosition(48.1, 16.3))
	// No sign handling beyond float formatting: negatives stay as-is.
	assert.Equal(t, "-3.2N/16.3E", FormatGeoPosition(-3.2, 16.3))
}

func TestParseGeoPositionMalformed(t *testing.T) {
	bad := []string{
		"",
		"48.1N",
		"48.1N/16.3E/extra",
		"48.1/16.3E",
		"48.1N/16.3",
		"northN/16.3E",
		"48.1N/eastE",
		"48.1S/16.3E",
		"48.1N|16.3E",
	}
	for _, s := range bad {
		_, _, err := ParseGeoPosition(s)
		require.Error(t, err, "input %q", s)
		var geoErr *MalformedGeoError
		assert.ErrorAs(t, err, &geoErr, "input %q", s)
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "25", FormatValue(25))
	assert.Equal(t, "25.5", FormatValue(25.5))
	assert.Equal(t, "-7", FormatValue(-7))
	assert.False(t, math.Signbit(0)) // guard against -0 formatting surprises
	assert.Equal(t, "0", FormatValue(0))
}
