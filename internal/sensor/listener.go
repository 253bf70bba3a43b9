package sensor

import (
	"bufio"
	"context"
	"io"
	"time"

	serial "github.com/tarm/goserial"
	"go.uber.org/zap"

	"github.com/FlareSome/Weather-Prediction/internal/observability"
)

// Writer is the slice of the store the listener needs.
type Writer interface {
	InsertReading(ctx context.Context, r Reading) error
}

// ListenerConfig holds the serial port settings.
type ListenerConfig struct {
	Port       string
	Baud       int
	RetryDelay time.Duration
}

// Listener owns the serial connection to the sensor board. It reconnects
// forever until its context is canceled, persisting every packet it can parse.
type Listener struct {
	cfg     ListenerConfig
	store   Writer
	metrics *observability.Metrics
	logger  *zap.SugaredLogger

	// openPort is swapped out in tests.
	openPort func(*serial.Config) (io.ReadWriteCloser, error)
}

// NewListener creates a serial listener writing readings into store.
func NewListener(cfg ListenerConfig, store Writer, metrics *observability.Metrics, logger *zap.SugaredLogger) *Listener {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &Listener{
		cfg:      cfg,
		store:    store,
		metrics:  metrics,
		logger:   logger,
		openPort: serial.OpenPort,
	}
}

// Run blocks until ctx is canceled, maintaining the serial connection.
func (l *Listener) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		l.logger.Infow("connecting to sensor board", "port", l.cfg.Port, "baud", l.cfg.Baud)
		port, err := l.openPort(&serial.Config{
			Name:        l.cfg.Port,
			Baud:        l.cfg.Baud,
			ReadTimeout: 5 * time.Second,
		})
		if err != nil {
			l.logger.Warnw("serial open failed", "port", l.cfg.Port, "error", err)
			if !sleepCtx(ctx, l.cfg.RetryDelay) {
				return
			}
			continue
		}

		l.logger.Infow("sensor board connected", "port", l.cfg.Port)
		l.readLoop(ctx, port)
		port.Close()

		if !sleepCtx(ctx, l.cfg.RetryDelay) {
			return
		}
	}
}

// readLoop consumes lines until a read error or cancellation. Lines that are
// not valid packets (boot banners, debug prints) are skipped.
func (l *Listener) readLoop(ctx context.Context, port io.Reader) {
	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := scanner.Text()
		if line == "" {
			continue
		}

		reading, err := ParseLine(line, time.Now())
		if err != nil {
			l.logger.Debugw("skipping serial line", "error", err)
			continue
		}

		if err := l.store.InsertReading(ctx, reading); err != nil {
			l.metrics.IngestErrors.Inc()
			l.logger.Errorw("failed to persist reading", "error", err)
			continue
		}

		l.metrics.ReadingsIngested.Inc()
		l.logger.Debugw("reading persisted",
			"temp_c", reading.TemperatureC,
			"humidity", reading.HumidityPct,
			"pressure", reading.PressureHpa,
			"rain_mm", reading.RainfallMm,
			"status", reading.Status,
		)
	}

	if err := scanner.Err(); err != nil {
		l.logger.Warnw("serial connection lost", "error", err)
	}
}

// sleepCtx waits for d, returning false if ctx was canceled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
