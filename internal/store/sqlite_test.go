package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlareSome/Weather-Prediction/internal/sensor"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "readings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func reading(ts time.Time, tempC, rainMm float64) sensor.Reading {
	return sensor.Reading{
		Timestamp:    ts,
		TemperatureC: tempC,
		HumidityPct:  60,
		PressureHpa:  1010,
		RainfallMm:   rainMm,
		Status:       sensor.StatusDry,
	}
}

func TestLatestReadingEmptyStore(t *testing.T) {
	s := newTestStore(t)
	_, err := s.LatestReading(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertAndLatestReading(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertReading(ctx, reading(base, 18, 0)))
	require.NoError(t, s.InsertReading(ctx, reading(base.Add(time.Hour), 19.5, 0.3)))

	got, err := s.LatestReading(ctx)
	require.NoError(t, err)
	assert.Equal(t, 19.5, got.TemperatureC)
	assert.Equal(t, base.Add(time.Hour), got.Timestamp)
	assert.NotEmpty(t, got.ID)
	assert.Nil(t, got.WindKph)
}

func TestInsertPreservesWind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	wind := 12.5
	r := reading(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC), 20, 0)
	r.WindKph = &wind
	require.NoError(t, s.InsertReading(ctx, r))

	got, err := s.LatestReading(ctx)
	require.NoError(t, err)
	require.NotNil(t, got.WindKph)
	assert.Equal(t, 12.5, *got.WindKph)
}

func TestReadingsRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.InsertReading(ctx, reading(base.Add(time.Duration(i)*time.Hour), float64(15+i), 0)))
	}

	got, err := s.ReadingsRange(ctx, base.Add(time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 16.0, got[0].TemperatureC)
	assert.Equal(t, 18.0, got[2].TemperatureC)

	_, err = s.ReadingsRange(ctx, base.AddDate(0, 0, 5), base.AddDate(0, 0, 6))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTrainingReadingsChronological(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		require.NoError(t, s.InsertReading(ctx, reading(base.Add(time.Duration(i)*time.Hour), float64(i), 0)))
	}

	got, err := s.TrainingReadings(ctx, 4)
	require.NoError(t, err)
	require.Len(t, got, 4)

	// The four most recent readings, oldest first.
	assert.Equal(t, 6.0, got[0].TemperatureC)
	assert.Equal(t, 9.0, got[3].TemperatureC)
	assert.True(t, got[0].Timestamp.Before(got[3].Timestamp))
}

func TestDailyTrends(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	// Anchor to noon so the two readings stay within one calendar day.
	yesterday := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	require.NoError(t, s.InsertReading(ctx, reading(yesterday, 18, 1.0)))
	require.NoError(t, s.InsertReading(ctx, reading(yesterday.Add(time.Hour), 20, 0.5)))
	require.NoError(t, s.InsertReading(ctx, reading(now, 22, 0)))

	trends, err := s.DailyTrends(ctx, 7)
	require.NoError(t, err)
	require.NotEmpty(t, trends)

	// Oldest day first, rainfall summed per day.
	first := trends[0]
	assert.Equal(t, 60.0, first.AvgHumidity)
	assert.Equal(t, 1010.0, first.AvgPressure)
	assert.Equal(t, 1.5, first.TotalRainfall)
}

func TestDailyTrendsEmptyStore(t *testing.T) {
	s := newTestStore(t)
	trends, err := s.DailyTrends(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, trends)
}

func TestCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, s.InsertReading(ctx, reading(time.Now().UTC(), 20, 0)))
	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
