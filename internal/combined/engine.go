package combined

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/FlareSome/Weather-Prediction/internal/forecast"
	"github.com/FlareSome/Weather-Prediction/internal/observability"
	"github.com/FlareSome/Weather-Prediction/internal/sensor"
	"github.com/FlareSome/Weather-Prediction/internal/store"
	"github.com/FlareSome/Weather-Prediction/internal/weatherapi"
)

// SensorSource answers the latest stored sensor reading.
type SensorSource interface {
	LatestReading(ctx context.Context) (sensor.Reading, error)
}

// WeatherSource answers the third-party provider's current conditions and
// daily forecast.
type WeatherSource interface {
	Current(ctx context.Context) (weatherapi.CurrentConditions, error)
	DailyForecast(ctx context.Context, days int) ([]weatherapi.ForecastDay, error)
}

// ModelSource answers the trained model's forward forecast.
type ModelSource interface {
	Predict(days int) (forecast.Prediction, error)
}

// TrendSource answers the windowed daily trend aggregation.
type TrendSource interface {
	DailyTrends(ctx context.Context, days int) ([]store.TrendRow, error)
}

// Engine pulls from all four sources and assembles the combined response.
// It holds no state of its own; concurrent Combine calls are independent.
type Engine struct {
	sensors SensorSource
	weather WeatherSource
	model   ModelSource
	trends  TrendSource
	metrics *observability.Metrics
	logger  *zap.SugaredLogger
}

// NewEngine creates a merge engine over the four collaborators.
func NewEngine(sensors SensorSource, weather WeatherSource, model ModelSource, trends TrendSource, metrics *observability.Metrics, logger *zap.SugaredLogger) *Engine {
	return &Engine{
		sensors: sensors,
		weather: weather,
		model:   model,
		trends:  trends,
		metrics: metrics,
		logger:  logger,
	}
}

// Combine assembles one Response from the current upstream state. It never
// fails: every upstream is independently guarded, and an unreachable or
// malformed source contributes its empty default instead of an error.
func (e *Engine) Combine(ctx context.Context) Response {
	started := time.Now()
	e.metrics.CombineRequests.Inc()
	defer func() {
		e.metrics.CombineDuration.Observe(time.Since(started).Seconds())
	}()

	// The daily forecast is fetched first: sunrise/sunset for today only
	// exist in its first entry, never in the current-conditions payload.
	daily := e.fetchAPIDaily(ctx)

	var sunrise, sunset *string
	if len(daily) > 0 {
		sunrise, sunset = daily[0].Sunrise, daily[0].Sunset
	}

	sensorSnap := e.fetchSensorSnapshot(ctx)

	// The API current call is always issued, even with a sensor present: the
	// API snapshot is the permanent fallback for fields the sensor cannot
	// provide, and it is surfaced verbatim as api_data either way.
	apiSnap := e.fetchAPISnapshot(ctx, sunrise, sunset)

	current := reconcile(sensorSnap, apiSnap)

	modelEntries := e.fetchModelEntries()

	daily = mergeDaily(daily, modelEntries)

	chart := e.assembleChart(ctx, daily, modelEntries)

	status := StatusDisconnected
	if sensorSnap != nil {
		status = StatusConnected
	}

	return Response{
		Current:      current,
		SensorData:   sensorSnap,
		APIData:      apiSnap,
		Daily:        daily,
		SensorStatus: status,
		Chart:        chart,
	}
}

func (e *Engine) fetchAPIDaily(ctx context.Context) []DailyEntry {
	days, err := e.weather.DailyForecast(ctx, ForecastDays)
	if err != nil {
		e.degraded("api_forecast", err)
		return nil
	}

	out := make([]DailyEntry, 0, len(days))
	for _, d := range days {
		out = append(out, DailyEntry{
			Day:         d.Date,
			TempHighC:   d.MaxTempC,
			TempLowC:    d.MinTempC,
			RainProbPct: d.RainChancePct,
			Condition:   nonEmpty(d.Condition, conditionUnknown),
			Sunrise:     d.Sunrise,
			Sunset:      d.Sunset,
		})
	}
	return out
}

func (e *Engine) fetchSensorSnapshot(ctx context.Context) *Snapshot {
	r, err := e.sensors.LatestReading(ctx)
	if err != nil {
		e.degraded("sensor", err)
		return nil
	}

	updated := r.Timestamp.UTC().Format(time.RFC3339)
	return &Snapshot{
		Temp:      &r.TemperatureC,
		Humidity:  &r.HumidityPct,
		Pressure:  &r.PressureHpa,
		Wind:      r.WindKph,
		Rainfall:  r.RainfallMm,
		Condition: nonEmpty(r.Status, conditionUnknown),
		Updated:   &updated,
	}
}

func (e *Engine) fetchAPISnapshot(ctx context.Context, sunrise, sunset *string) Snapshot {
	cc, err := e.weather.Current(ctx)
	if err != nil {
		e.degraded("api_current", err)
		cc = weatherapi.CurrentConditions{}
	}

	return Snapshot{
		// Primary field name first, then the legacy one.
		Temp:      coalesce(cc.TemperatureC, cc.TempC),
		FeelsLike: cc.FeelslikeC,
		Humidity:  cc.Humidity,
		// hPa and millibar are numerically equivalent; either name may arrive.
		Pressure:  coalesce(cc.PressureHpa, cc.PressureMb),
		Wind:      cc.WindKph,
		Rainfall:  valueOrZero(cc.PrecipMm),
		Condition: cc.Condition.Label(),
		Sunrise:   sunrise,
		Sunset:    sunset,
	}
}

// reconcile builds the "best available" snapshot. The sensor is the base when
// present; exactly three fields are backfilled from the API (wind, sunrise,
// sunset), and feels-like is approximated by the sensor's own temperature,
// since sensors have no humidity-adjusted model. A fixed fallback chain per
// field, never a blend.
func reconcile(sensorSnap *Snapshot, apiSnap Snapshot) Snapshot {
	if sensorSnap == nil {
		return apiSnap
	}

	current := *sensorSnap
	if !hasValue(current.Wind) {
		current.Wind = apiSnap.Wind
	}
	if current.Sunrise == nil {
		current.Sunrise = apiSnap.Sunrise
	}
	if current.Sunset == nil {
		current.Sunset = apiSnap.Sunset
	}
	if current.FeelsLike == nil {
		current.FeelsLike = current.Temp
	}
	return current
}

func (e *Engine) fetchModelEntries() []DailyEntry {
	pred, err := e.model.Predict(ForecastDays)
	if err != nil {
		e.degraded("model", err)
		return nil
	}

	out := make([]DailyEntry, 0, len(pred.Forecast))
	for _, f := range pred.Forecast {
		out = append(out, DailyEntry{
			Day:         f.Day,
			TempHighC:   f.TempHighC,
			TempLowC:    f.TempLowC,
			RainProbPct: intToFloat(f.RainProbPct),
			Condition:   nonEmpty(f.Condition, modelConditionDefault),
		})
	}
	return out
}

// mergeDaily fills calendar days the API omitted with model entries. Model
// entries never override an existing API day. The result is sorted by day
// key where the keys are comparable calendar dates and truncated to
// ForecastDays entries.
func mergeDaily(apiDaily, modelEntries []DailyEntry) []DailyEntry {
	merged := make([]DailyEntry, 0, len(apiDaily)+len(modelEntries))
	merged = append(merged, apiDaily...)

	seen := make(map[string]struct{}, len(apiDaily))
	for _, d := range apiDaily {
		seen[d.Day] = struct{}{}
	}
	for _, m := range modelEntries {
		if _, ok := seen[m.Day]; ok {
			continue
		}
		merged = append(merged, m)
		seen[m.Day] = struct{}{}
	}

	// Relative labels like "Day 3" are incomparable against calendar dates;
	// those pairs keep their relative order instead of failing the sort.
	sort.SliceStable(merged, func(i, j int) bool {
		return lessDayKey(merged[i].Day, merged[j].Day)
	})

	if len(merged) > ForecastDays {
		merged = merged[:ForecastDays]
	}
	return merged
}

// lessDayKey orders two day keys when both parse as calendar dates and
// reports incomparable pairs as not-less.
func lessDayKey(a, b string) bool {
	ta, errA := time.Parse("2006-01-02", a)
	tb, errB := time.Parse("2006-01-02", b)
	if errA != nil || errB != nil {
		return false
	}
	return ta.Before(tb)
}

// assembleChart builds the seven fixed-length series. Labels and the model
// series come from the model entries when any exist; otherwise labels fall
// back to the merged daily sequence and the model series stays empty.
func (e *Engine) assembleChart(ctx context.Context, daily, modelEntries []DailyEntry) Chart {
	var labels []string
	var ai []*float64
	if len(modelEntries) > 0 {
		for _, m := range modelEntries {
			labels = append(labels, m.Day)
			ai = append(ai, m.TempHighC)
		}
	} else {
		for _, d := range daily {
			labels = append(labels, d.Day)
		}
	}

	var apiHigh, apiLow []*float64
	for _, d := range daily {
		apiHigh = append(apiHigh, d.TempHighC)
		apiLow = append(apiLow, d.TempLowC)
	}

	var humidity, pressure []*float64
	var rainfall []float64
	rows, err := e.trends.DailyTrends(ctx, ForecastDays)
	if err != nil {
		e.degraded("trends", err)
		rows = nil
	}
	for _, row := range rows {
		h, p := row.AvgHumidity, row.AvgPressure
		humidity = append(humidity, &h)
		pressure = append(pressure, &p)
		rainfall = append(rainfall, row.TotalRainfall)
	}

	// Humidity and pressure pad with nil: "no pressure recorded" is not a
	// zero. Rainfall pads with 0: "no rain recorded" is.
	return Chart{
		Labels:   padOrTruncate(labels, ForecastDays, ""),
		AI:       padOrTruncate(ai, ForecastDays, nil),
		APIHigh:  padOrTruncate(apiHigh, ForecastDays, nil),
		APILow:   padOrTruncate(apiLow, ForecastDays, nil),
		Humidity: padOrTruncate(humidity, ForecastDays, nil),
		Pressure: padOrTruncate(pressure, ForecastDays, nil),
		Rainfall: padOrTruncate(rainfall, ForecastDays, 0),
	}
}

func (e *Engine) degraded(source string, err error) {
	e.metrics.UpstreamDegraded.WithLabelValues(source).Inc()
	e.logger.Debugw("upstream degraded to empty default", "source", source, "error", err)
}

// hasValue treats nil and zero as absent: a zero wind from a sensor without
// an anemometer means "not measured", not "calm".
func hasValue(v *float64) bool {
	return v != nil && *v != 0
}

func coalesce(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func nonEmpty(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func intToFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}
