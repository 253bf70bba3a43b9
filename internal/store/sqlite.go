// Package store persists sensor readings in SQLite and answers the windowed
// queries the rest of the station is built on.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/FlareSome/Weather-Prediction/internal/sensor"
)

// ErrNotFound is returned when no readings match a query.
var ErrNotFound = errors.New("no sensor readings found")

const schema = `
CREATE TABLE IF NOT EXISTS readings (
	id            TEXT PRIMARY KEY,
	ts            TEXT NOT NULL,
	temperature_c REAL NOT NULL,
	humidity_perc REAL NOT NULL,
	pressure_hpa  REAL NOT NULL,
	rainfall_mm   REAL NOT NULL DEFAULT 0,
	wind_kph      REAL,
	status        TEXT NOT NULL DEFAULT 'Unknown'
);
CREATE INDEX IF NOT EXISTS idx_readings_ts ON readings (ts);
`

// TrendRow is one day of aggregated history, oldest first when listed.
type TrendRow struct {
	Day           string  `json:"day"` // calendar date, YYYY-MM-DD
	AvgHumidity   float64 `json:"avg_humidity"`
	AvgPressure   float64 `json:"avg_pressure"`
	TotalRainfall float64 `json:"total_rainfall"`
}

// Store wraps the SQLite database holding sensor readings.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and applies
// the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertReading appends one reading. Readings are immutable once written; the
// ID is assigned here when the caller left it empty.
func (s *Store) InsertReading(ctx context.Context, r sensor.Reading) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO readings (id, ts, temperature_c, humidity_perc, pressure_hpa, rainfall_mm, wind_kph, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.Timestamp.UTC().Format(time.RFC3339),
		r.TemperatureC,
		r.HumidityPct,
		r.PressureHpa,
		r.RainfallMm,
		r.WindKph,
		r.Status,
	)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// LatestReading returns the most recent reading.
func (s *Store) LatestReading(ctx context.Context) (sensor.Reading, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, ts, temperature_c, humidity_perc, pressure_hpa, rainfall_mm, wind_kph, status
		FROM readings ORDER BY ts DESC LIMIT 1`)

	r, err := scanReading(row)
	if errors.Is(err, sql.ErrNoRows) {
		return sensor.Reading{}, ErrNotFound
	}
	if err != nil {
		return sensor.Reading{}, fmt.Errorf("query latest reading: %w", err)
	}
	return r, nil
}

// ReadingsRange returns readings between from and to inclusive, oldest first.
func (s *Store) ReadingsRange(ctx context.Context, from, to time.Time) ([]sensor.Reading, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, temperature_c, humidity_perc, pressure_hpa, rainfall_mm, wind_kph, status
		FROM readings WHERE ts >= ? AND ts <= ? ORDER BY ts ASC`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("query readings range: %w", err)
	}
	defer rows.Close()

	readings, err := collectReadings(rows)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, ErrNotFound
	}
	return readings, nil
}

// TrainingReadings returns up to limit of the most recent readings, reordered
// oldest first for regression fitting.
func (s *Store) TrainingReadings(ctx context.Context, limit int) ([]sensor.Reading, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, temperature_c, humidity_perc, pressure_hpa, rainfall_mm, wind_kph, status
		FROM readings ORDER BY ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query training readings: %w", err)
	}
	defer rows.Close()

	readings, err := collectReadings(rows)
	if err != nil {
		return nil, err
	}

	// Newest-first from the query; fitting wants chronological order.
	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}
	return readings, nil
}

// DailyTrends aggregates the last `days` calendar days of readings into
// per-day humidity and pressure averages and rainfall totals, oldest first.
// An empty result is not an error: a fresh station simply has no history yet.
func (s *Store) DailyTrends(ctx context.Context, days int) ([]TrendRow, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)

	rows, err := s.db.QueryContext(ctx, `
		SELECT date(ts), AVG(humidity_perc), AVG(pressure_hpa), SUM(rainfall_mm)
		FROM readings WHERE ts >= ?
		GROUP BY date(ts) ORDER BY date(ts) ASC LIMIT ?`,
		cutoff, days)
	if err != nil {
		return nil, fmt.Errorf("query daily trends: %w", err)
	}
	defer rows.Close()

	var trends []TrendRow
	for rows.Next() {
		var t TrendRow
		if err := rows.Scan(&t.Day, &t.AvgHumidity, &t.AvgPressure, &t.TotalRainfall); err != nil {
			return nil, fmt.Errorf("scan trend row: %w", err)
		}
		trends = append(trends, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trend rows: %w", err)
	}
	return trends, nil
}

// Count returns the total number of stored readings.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count readings: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(row rowScanner) (sensor.Reading, error) {
	var (
		r  sensor.Reading
		ts string
	)
	if err := row.Scan(&r.ID, &ts, &r.TemperatureC, &r.HumidityPct, &r.PressureHpa, &r.RainfallMm, &r.WindKph, &r.Status); err != nil {
		return sensor.Reading{}, err
	}

	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return sensor.Reading{}, fmt.Errorf("parse stored timestamp %q: %w", ts, err)
	}
	r.Timestamp = parsed
	return r, nil
}

func collectReadings(rows *sql.Rows) ([]sensor.Reading, error) {
	var readings []sensor.Reading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return readings, nil
}
