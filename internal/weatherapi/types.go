package weatherapi

import "encoding/json"

// ConditionText decodes WeatherAPI's polymorphic condition field, which
// arrives either as a plain string or as an object carrying a "text" label.
// The union is resolved here at the decoding boundary; downstream code only
// ever sees Label().
type ConditionText struct {
	text    string
	present bool
}

// NewConditionText builds a resolved condition, mainly for tests and fakes.
func NewConditionText(text string) ConditionText {
	return ConditionText{text: text, present: text != ""}
}

// UnmarshalJSON accepts a string, an object with a "text" field, or null.
// Unrecognized shapes degrade to absent rather than failing the decode.
func (c *ConditionText) UnmarshalJSON(data []byte) error {
	*c = ConditionText{}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "" {
			c.text = s
			c.present = true
		}
		return nil
	}

	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && obj.Text != "" {
		c.text = obj.Text
		c.present = true
	}
	return nil
}

// MarshalJSON always emits the resolved plain-text label.
func (c ConditionText) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Label())
}

// Label returns the condition text, or "Unknown" when no label was present.
func (c ConditionText) Label() string {
	if !c.present {
		return "Unknown"
	}
	return c.text
}

// Present reports whether the upstream payload carried a usable label.
func (c ConditionText) Present() bool {
	return c.present
}

// CurrentConditions is the loosely-typed current snapshot from the provider.
// The upstream schema is only partially trusted: temperature and pressure
// each arrive under one of two field names depending on the provider's unit
// convention, so both are retained and resolved by the merge engine.
type CurrentConditions struct {
	TemperatureC *float64      `json:"temperature_c"`
	TempC        *float64      `json:"temp_c"` // legacy field name
	FeelslikeC   *float64      `json:"feelslike_c"`
	Humidity     *float64      `json:"humidity"`
	PressureHpa  *float64      `json:"pressure_hpa"`
	PressureMb   *float64      `json:"pressure_mb"` // numerically equal to hPa
	WindKph      *float64      `json:"wind_kph"`
	PrecipMm     *float64      `json:"precip_mm"`
	Condition    ConditionText `json:"condition"`
}

// ForecastDay is one normalized day of the provider's daily forecast.
// Sunrise and sunset are populated on the first entry only; astronomical
// data is meaningful for "today" alone.
type ForecastDay struct {
	Date          string   `json:"day"` // calendar date, YYYY-MM-DD
	MaxTempC      *float64 `json:"temp_high_c"`
	MinTempC      *float64 `json:"temp_low_c"`
	RainChancePct *float64 `json:"rain_prob_perc"`
	Condition     string   `json:"condition"`
	Sunrise       *string  `json:"sunrise,omitempty"`
	Sunset        *string  `json:"sunset,omitempty"`
}
