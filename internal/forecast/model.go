// Package forecast fits a small regression model over stored sensor readings
// and extrapolates a short-range daily forecast from it.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/FlareSome/Weather-Prediction/internal/sensor"
)

var (
	// ErrNotTrained is returned by Predict before the first successful fit.
	ErrNotTrained = errors.New("forecast model not trained")

	// ErrNotEnoughData is returned by Train when the store holds too few rows.
	ErrNotEnoughData = errors.New("not enough readings to train")
)

const (
	// MinTrainingRows gates auto-training until real data has accumulated.
	MinTrainingRows = 30

	// maxTrendDeltaC caps how far the linear trend may push a multi-day
	// extrapolation away from the observed mean.
	maxTrendDeltaC = 5.0

	// rainProbPressureGain converts the per-day pressure slope (hPa/day) into
	// a rain-probability adjustment; falling pressure raises the probability.
	rainProbPressureGain = 8.0
)

// Entry is one predicted day. Pointer fields keep the wire shape honest
// about absence for consumers that merge this with other forecast sources.
type Entry struct {
	Day         string   `json:"day"` // calendar date, YYYY-MM-DD
	TempHighC   *float64 `json:"temp_high_c"`
	TempLowC    *float64 `json:"temp_low_c"`
	RainProbPct *int     `json:"rain_prob_perc"`
	Condition   string   `json:"condition,omitempty"`
}

// Prediction is the model's forward forecast.
type Prediction struct {
	Forecast    []Entry   `json:"forecast"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Model holds the fitted coefficients. Concurrent Predict calls are safe;
// Train swaps the coefficients atomically under the lock.
type Model struct {
	clock  clockwork.Clock
	logger *zap.SugaredLogger

	mu      sync.RWMutex
	trained bool

	meanTempC     float64
	trendSlope    float64 // °C per hour, from the linear regression over time
	diurnal       [3]float64
	amplitudeC    float64 // predicted daily high-low spread
	wetFraction   float64 // share of training readings with rain
	pressureSlope float64 // hPa per hour
}

// New creates an untrained Model.
func New(clock clockwork.Clock, logger *zap.SugaredLogger) *Model {
	return &Model{clock: clock, logger: logger}
}

// Trained reports whether at least one fit has succeeded.
func (m *Model) Trained() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trained
}

// Train fits the model on chronologically ordered readings.
func (m *Model) Train(readings []sensor.Reading) error {
	n := len(readings)
	if n < MinTrainingRows {
		return fmt.Errorf("%w: %d < %d", ErrNotEnoughData, n, MinTrainingRows)
	}

	base := readings[0].Timestamp
	hours := make([]float64, n)
	temps := make([]float64, n)
	pressures := make([]float64, n)
	hourOfDay := make([]float64, n)
	wet := 0

	for i, r := range readings {
		hours[i] = r.Timestamp.Sub(base).Hours()
		temps[i] = r.TemperatureC
		pressures[i] = r.PressureHpa
		hourOfDay[i] = float64(r.Timestamp.Hour())
		if r.RainfallMm > 0 || r.Status == sensor.StatusWet {
			wet++
		}
	}

	_, trendSlope := stat.LinearRegression(hours, temps, nil, false)
	_, pressureSlope := stat.LinearRegression(hours, pressures, nil, false)

	diurnal, err := fitQuadratic(hourOfDay, temps)
	if err != nil {
		return fmt.Errorf("fit diurnal curve: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.meanTempC = stat.Mean(temps, nil)
	m.trendSlope = trendSlope
	m.pressureSlope = pressureSlope
	m.diurnal = diurnal
	m.amplitudeC = quadraticSpread(diurnal)
	m.wetFraction = float64(wet) / float64(n)
	m.trained = true

	m.logger.Infow("forecast model trained",
		"rows", n,
		"mean_temp_c", m.meanTempC,
		"trend_c_per_hour", m.trendSlope,
		"amplitude_c", m.amplitudeC,
		"wet_fraction", m.wetFraction,
	)
	return nil
}

// Predict extrapolates days forward from now, one entry per day starting
// tomorrow, labeled with calendar dates.
func (m *Model) Predict(days int) (Prediction, error) {
	if days <= 0 {
		return Prediction{}, fmt.Errorf("days must be greater than zero")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.trained {
		return Prediction{}, ErrNotTrained
	}

	now := m.clock.Now().UTC()
	entries := make([]Entry, 0, days)

	for i := 1; i <= days; i++ {
		hoursAhead := float64(i) * 24

		trend := m.trendSlope * hoursAhead
		trend = math.Max(-maxTrendDeltaC, math.Min(maxTrendDeltaC, trend))
		mean := m.meanTempC + trend

		high := round1(mean + m.amplitudeC/2)
		low := round1(mean - m.amplitudeC/2)
		prob := m.rainProbability()
		cond := conditionForRainProb(prob)

		entries = append(entries, Entry{
			Day:         now.AddDate(0, 0, i).Format("2006-01-02"),
			TempHighC:   &high,
			TempLowC:    &low,
			RainProbPct: &prob,
			Condition:   cond,
		})
	}

	return Prediction{Forecast: entries, GeneratedAt: now}, nil
}

// rainProbability combines the observed wet fraction with the pressure trend:
// falling pressure pushes the probability up, rising pressure down.
func (m *Model) rainProbability() int {
	adj := -m.pressureSlope * 24 * rainProbPressureGain
	adj = math.Max(-25, math.Min(25, adj))

	prob := int(math.Round(m.wetFraction*100 + adj))
	if prob < 0 {
		prob = 0
	}
	if prob > 100 {
		prob = 100
	}
	return prob
}

func conditionForRainProb(prob int) string {
	switch {
	case prob < 20:
		return "Sunny"
	case prob < 45:
		return "Partly Cloudy"
	case prob < 70:
		return "Cloudy"
	default:
		return "Rain Likely"
	}
}

// fitQuadratic solves y = c0 + c1*x + c2*x² by QR decomposition of the
// Vandermonde matrix.
func fitQuadratic(xs, ys []float64) ([3]float64, error) {
	n := len(xs)
	X := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, 1)
		X.Set(i, 1, xs[i])
		X.Set(i, 2, xs[i]*xs[i])
	}
	y := mat.NewVecDense(n, ys)

	var qr mat.QR
	qr.Factorize(X)

	coeffs := mat.NewVecDense(3, nil)
	if err := qr.SolveVecTo(coeffs, false, y); err != nil {
		return [3]float64{}, err
	}
	return [3]float64{coeffs.AtVec(0), coeffs.AtVec(1), coeffs.AtVec(2)}, nil
}

// quadraticSpread evaluates the diurnal curve over a full day and returns the
// fitted high-low spread.
func quadraticSpread(c [3]float64) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for h := 0.0; h < 24; h++ {
		v := c[0] + c[1]*h + c[2]*h*h
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return hi - lo
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
