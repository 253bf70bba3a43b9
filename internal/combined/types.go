// Package combined reconciles the sensor store, the third-party weather API,
// the trained forecast model, and the historical trend aggregation into the
// single normalized response both dashboards consume.
package combined

// ForecastDays is the fixed horizon of the daily forecast and every chart
// series.
const ForecastDays = 7

// Sensor connection labels exposed in the response.
const (
	StatusConnected    = "Connected"
	StatusDisconnected = "Disconnected"
)

const (
	// conditionUnknown is the default label for sensor and API snapshots.
	conditionUnknown = "Unknown"

	// modelConditionDefault marks model-sourced entries whose condition was
	// absent, leaving provenance distinguishable from the API's "Unknown".
	modelConditionDefault = "ML Prediction"
)

// Snapshot is the canonical current-conditions shape shared by the sensor
// snapshot, the API snapshot, and the reconciled "current" view. Nil means
// the source could not provide the field.
type Snapshot struct {
	Temp      *float64 `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
	Humidity  *float64 `json:"humidity"`
	Pressure  *float64 `json:"pressure"`
	Wind      *float64 `json:"wind"`
	Rainfall  float64  `json:"rainfall"` // zero is meaningful: no rain recorded
	Condition string   `json:"condition"`
	Sunrise   *string  `json:"sunrise"`
	Sunset    *string  `json:"sunset"`
	Updated   *string  `json:"updated,omitempty"` // sensor snapshots only
}

// DailyEntry is one day of the merged forecast. Day is a calendar date for
// API-sourced entries but may be a relative label ("Today", "Day 3") from
// model sources; the merge tolerates both.
type DailyEntry struct {
	Day         string   `json:"day"`
	TempHighC   *float64 `json:"temp_high_c"`
	TempLowC    *float64 `json:"temp_low_c"`
	RainProbPct *float64 `json:"rain_prob_perc"`
	Condition   string   `json:"condition"`
	Sunrise     *string  `json:"sunrise,omitempty"`
	Sunset      *string  `json:"sunset,omitempty"`
}

// Chart carries seven parallel series of length exactly ForecastDays, padded
// with each series' sentinel: nil for absent measurements, zero for rainfall,
// the empty string for labels.
//
// Labels come from the model forecast when one exists, so they can reference
// a different day set than the API-sourced high/low series when the model
// uses relative day labels. Both dashboards accept this.
type Chart struct {
	Labels   []string   `json:"labels"`
	AI       []*float64 `json:"AI"`
	APIHigh  []*float64 `json:"API_high"`
	APILow   []*float64 `json:"API_low"`
	Humidity []*float64 `json:"humidity"`
	Pressure []*float64 `json:"pressure"`
	Rainfall []float64  `json:"rainfall"`
}

// Response is the merge engine's sole output. It is always well-shaped:
// Daily holds at most ForecastDays entries and every Chart series holds
// exactly ForecastDays points, no matter which upstreams were reachable.
type Response struct {
	Current      Snapshot     `json:"current"`
	SensorData   *Snapshot    `json:"sensor_data"`
	APIData      Snapshot     `json:"api_data"`
	Daily        []DailyEntry `json:"daily"`
	SensorStatus string       `json:"sensor_status"`
	Chart        Chart        `json:"chart"`
}

// padOrTruncate fixes seq to exactly length elements, right-padding with
// sentinel or truncating as needed. Every chart series goes through here so
// the length invariant lives in one place.
func padOrTruncate[T any](seq []T, length int, sentinel T) []T {
	out := make([]T, 0, length)
	for i := 0; i < length; i++ {
		if i < len(seq) {
			out = append(out, seq[i])
		} else {
			out = append(out, sentinel)
		}
	}
	return out
}
