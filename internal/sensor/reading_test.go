package sensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineFullPacket(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	line := `{"timestamp":1717236000,"temperature":22.4,"humidity":58.1,"pressure":1009.7,"altitude":30.2,"rain_value":0.8,"rain_digital":1,"wind_kph":12.5,"firmware":"ws-1.4"}`

	r, err := ParseLine(line, now)
	require.NoError(t, err)

	assert.Equal(t, time.Unix(1717236000, 0).UTC(), r.Timestamp)
	assert.Equal(t, 22.4, r.TemperatureC)
	assert.Equal(t, 58.1, r.HumidityPct)
	assert.Equal(t, 1009.7, r.PressureHpa)
	assert.Equal(t, 0.8, r.RainfallMm)
	require.NotNil(t, r.WindKph)
	assert.Equal(t, 12.5, *r.WindKph)
	assert.Equal(t, StatusDry, r.Status)
}

func TestParseLineDefaults(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	r, err := ParseLine(`{"temperature":19.0,"humidity":70.0}`, now)
	require.NoError(t, err)

	// No packet timestamp falls back to the wall clock.
	assert.Equal(t, now, r.Timestamp)
	// Missing barometer substitutes standard sea-level pressure.
	assert.Equal(t, 1013.25, r.PressureHpa)
	assert.Equal(t, 0.0, r.RainfallMm)
	assert.Nil(t, r.WindKph)
	assert.Equal(t, StatusDry, r.Status)
}

func TestParseLineWetStatus(t *testing.T) {
	r, err := ParseLine(`{"temperature":15.0,"rain_digital":0}`, time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusWet, r.Status)
}

func TestParseLineRainCalibration(t *testing.T) {
	// Raw ADC counts above the threshold are scaled to the 0-10mm span.
	r, err := ParseLine(`{"temperature":15.0,"rain_value":512}`, time.Now())
	require.NoError(t, err)
	assert.InDelta(t, 512.0/1023.0*10.0, r.RainfallMm, 0.01)

	// Small values are already millimeters.
	r, err = ParseLine(`{"temperature":15.0,"rain_value":3.2}`, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3.2, r.RainfallMm)
}

func TestParseLineBootChatterPrefix(t *testing.T) {
	r, err := ParseLine(`boot v1.4 ready {"temperature":21.0,"humidity":50.0}`, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 21.0, r.TemperatureC)
}

func TestParseLineRejectsGarbage(t *testing.T) {
	_, err := ParseLine("no json here", time.Now())
	assert.Error(t, err)

	_, err = ParseLine(`{"firmware":"ws-1.4"}`, time.Now())
	assert.Error(t, err)

	_, err = ParseLine(`{"temperature":}`, time.Now())
	assert.Error(t, err)
}
