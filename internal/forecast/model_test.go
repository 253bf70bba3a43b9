package forecast

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FlareSome/Weather-Prediction/internal/sensor"
)

// syntheticReadings builds hours of hourly readings with a diurnal temperature
// cycle around base plus a slow warming trend.
func syntheticReadings(start time.Time, hours int, baseTempC, trendPerHour float64, wetEvery int) []sensor.Reading {
	out := make([]sensor.Reading, 0, hours)
	for i := 0; i < hours; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		h := float64(ts.Hour())
		// Peak mid-afternoon, trough before dawn.
		diurnal := -0.08 * (h - 14) * (h - 14)
		r := sensor.Reading{
			Timestamp:    ts,
			TemperatureC: baseTempC + diurnal + trendPerHour*float64(i),
			HumidityPct:  60,
			PressureHpa:  1012 - 0.01*float64(i),
			Status:       sensor.StatusDry,
		}
		if wetEvery > 0 && i%wetEvery == 0 {
			r.RainfallMm = 1.5
			r.Status = sensor.StatusWet
		}
		out = append(out, r)
	}
	return out
}

func newTestModel(t *testing.T) (*Model, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC))
	return New(clock, zap.NewNop().Sugar()), clock
}

func TestPredictBeforeTraining(t *testing.T) {
	m, _ := newTestModel(t)
	_, err := m.Predict(7)
	assert.ErrorIs(t, err, ErrNotTrained)
	assert.False(t, m.Trained())
}

func TestTrainRejectsTooFewReadings(t *testing.T) {
	m, _ := newTestModel(t)
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	err := m.Train(syntheticReadings(start, MinTrainingRows-1, 20, 0, 0))
	assert.ErrorIs(t, err, ErrNotEnoughData)
	assert.False(t, m.Trained())
}

func TestTrainAndPredictShape(t *testing.T) {
	m, clock := newTestModel(t)
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.Train(syntheticReadings(start, 24*5, 20, 0, 0)))
	assert.True(t, m.Trained())

	pred, err := m.Predict(7)
	require.NoError(t, err)
	require.Len(t, pred.Forecast, 7)
	assert.Equal(t, clock.Now().UTC(), pred.GeneratedAt)

	// Days are labeled with consecutive calendar dates starting tomorrow.
	for i, e := range pred.Forecast {
		want := clock.Now().UTC().AddDate(0, 0, i+1).Format("2006-01-02")
		assert.Equal(t, want, e.Day)
		require.NotNil(t, e.TempHighC)
		require.NotNil(t, e.TempLowC)
		require.NotNil(t, e.RainProbPct)
		assert.GreaterOrEqual(t, *e.TempHighC, *e.TempLowC)
		assert.GreaterOrEqual(t, *e.RainProbPct, 0)
		assert.LessOrEqual(t, *e.RainProbPct, 100)
		assert.NotEmpty(t, e.Condition)
	}
}

func TestPredictTrendIsClamped(t *testing.T) {
	m, _ := newTestModel(t)
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	// A steep warming trend would otherwise push day 7 more than 30°C up.
	require.NoError(t, m.Train(syntheticReadings(start, 24*5, 20, 0.2, 0)))

	pred, err := m.Predict(7)
	require.NoError(t, err)

	first := *pred.Forecast[0].TempHighC
	last := *pred.Forecast[6].TempHighC
	assert.LessOrEqual(t, last-first, 2*maxTrendDeltaC)
}

func TestPredictDryWeekStaysSunny(t *testing.T) {
	m, _ := newTestModel(t)
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.Train(syntheticReadings(start, 24*5, 22, 0, 0)))

	pred, err := m.Predict(3)
	require.NoError(t, err)
	for _, e := range pred.Forecast {
		assert.Less(t, *e.RainProbPct, 45)
	}
}

func TestPredictWetHistoryRaisesRainProbability(t *testing.T) {
	m, _ := newTestModel(t)
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	// Rain on two readings out of three.
	wet := syntheticReadings(start, 24*5, 16, 0, 1)
	require.NoError(t, m.Train(wet))

	pred, err := m.Predict(1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, *pred.Forecast[0].RainProbPct, 70)
	assert.Equal(t, "Rain Likely", pred.Forecast[0].Condition)
}

func TestPredictRejectsNonPositiveDays(t *testing.T) {
	m, _ := newTestModel(t)
	_, err := m.Predict(0)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotTrained))
}

func TestConditionForRainProb(t *testing.T) {
	assert.Equal(t, "Sunny", conditionForRainProb(5))
	assert.Equal(t, "Partly Cloudy", conditionForRainProb(30))
	assert.Equal(t, "Cloudy", conditionForRainProb(60))
	assert.Equal(t, "Rain Likely", conditionForRainProb(85))
}
