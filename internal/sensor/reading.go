// Package sensor reads weather telemetry from a serial-attached sensor board
// and normalizes its line-oriented JSON packets into Readings.
package sensor

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// StatusDry and StatusWet are derived from the rain sensor's digital pin.
	StatusDry = "Dry"
	StatusWet = "Wet"

	// defaultPressureHpa is standard sea-level pressure, substituted when the
	// board omits the barometer field.
	defaultPressureHpa = 1013.25

	// rainAnalogThreshold separates raw ADC counts from pre-scaled millimeter
	// values. Readings above it are mapped from the 10-bit ADC range to 0-10mm.
	rainAnalogThreshold = 50
	rainAnalogMax       = 1023.0
	rainAnalogSpanMm    = 10.0
)

// Reading is one normalized sensor measurement.
type Reading struct {
	ID           string    `json:"id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	TemperatureC float64   `json:"temperature_c"`
	HumidityPct  float64   `json:"humidity_perc"`
	PressureHpa  float64   `json:"pressure_hpa"`
	RainfallMm   float64   `json:"rainfall_mm"`
	WindKph      *float64  `json:"wind_speed_kph,omitempty"` // absent on boards without an anemometer
	Status       string    `json:"status"`
}

// packet mirrors the JSON object the firmware writes per line. Pointers
// distinguish absent fields from zero values.
type packet struct {
	Timestamp   int64    `json:"timestamp"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Pressure    *float64 `json:"pressure"`
	Altitude    *float64 `json:"altitude"`
	RainValue   *float64 `json:"rain_value"`
	RainDigital *int     `json:"rain_digital"`
	WindKph     *float64 `json:"wind_kph"`
	Firmware    string   `json:"firmware"`
}

// ParseLine converts one serial line into a Reading. Boards sometimes prefix
// packets with boot chatter, so the JSON object is extracted by substring
// before decoding. now supplies the timestamp when the packet carries none.
func ParseLine(line string, now time.Time) (Reading, error) {
	raw, ok := extractJSON(line)
	if !ok {
		return Reading{}, fmt.Errorf("no JSON object in line %q", truncateForLog(line))
	}

	var p packet
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Reading{}, fmt.Errorf("decode packet: %w", err)
	}
	if p.Temperature == nil && p.Humidity == nil && p.Pressure == nil {
		return Reading{}, fmt.Errorf("packet carries no measurements: %q", truncateForLog(line))
	}

	ts := now
	if p.Timestamp > 0 {
		ts = time.Unix(p.Timestamp, 0).UTC()
	}

	pressure := defaultPressureHpa
	if p.Pressure != nil {
		pressure = *p.Pressure
	}

	rainDigital := 1
	if p.RainDigital != nil {
		rainDigital = *p.RainDigital
	}
	status := StatusDry
	if rainDigital == 0 {
		status = StatusWet
	}

	return Reading{
		Timestamp:    ts.UTC(),
		TemperatureC: floatOrZero(p.Temperature),
		HumidityPct:  floatOrZero(p.Humidity),
		PressureHpa:  pressure,
		RainfallMm:   rainfallMm(p.RainValue),
		WindKph:      p.WindKph,
		Status:       status,
	}, nil
}

// rainfallMm converts the rain sensor value to millimeters. Large values are
// raw 10-bit ADC counts and are scaled; small values are already millimeters.
func rainfallMm(raw *float64) float64 {
	if raw == nil {
		return 0
	}
	v := *raw
	if v <= 0 {
		return 0
	}
	if v > rainAnalogThreshold {
		return round2(v / rainAnalogMax * rainAnalogSpanMm)
	}
	return round2(v)
}

// extractJSON returns the outermost {...} substring of a line.
func extractJSON(line string) (string, bool) {
	start := strings.Index(line, "{")
	end := strings.LastIndex(line, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return line[start : end+1], true
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func truncateForLog(s string) string {
	const max = 120
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
