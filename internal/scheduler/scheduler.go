package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/FlareSome/Weather-Prediction/internal/forecast"
	"github.com/FlareSome/Weather-Prediction/internal/observability"
	"github.com/FlareSome/Weather-Prediction/internal/sensor"
)

// TrainingSource supplies readings for model retraining.
type TrainingSource interface {
	TrainingReadings(ctx context.Context, limit int) ([]sensor.Reading, error)
}

// trainingWindow caps how many recent readings each retrain consumes.
const trainingWindow = 5000

// Scheduler periodically retrains the forecast model on stored readings.
type Scheduler struct {
	scheduler *gocron.Scheduler
	source    TrainingSource
	model     *forecast.Model
	interval  time.Duration
	metrics   *observability.Metrics
	logger    *zap.SugaredLogger
}

// New creates a new Scheduler.
func New(source TrainingSource, model *forecast.Model, interval time.Duration, metrics *observability.Metrics, logger *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		source:    source,
		model:     model,
		interval:  interval,
		metrics:   metrics,
		logger:    logger,
	}
}

// Start schedules the retrain job and starts the underlying scheduler.
// The first retrain runs immediately so the model is usable at boot
// whenever enough readings already exist.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().StartImmediately().Do(s.retrain)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) retrain() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	readings, err := s.source.TrainingReadings(ctx, trainingWindow)
	if err != nil {
		s.metrics.ModelRetrainFails.Inc()
		s.logger.Errorw("retrain: failed to load readings", "error", err)
		return
	}

	if err := s.model.Train(readings); err != nil {
		s.metrics.ModelRetrainFails.Inc()
		s.logger.Warnw("retrain: training skipped", "readings", len(readings), "error", err)
		return
	}

	s.metrics.ModelRetrains.Inc()
	s.logger.Infow("retrain: model updated", "readings", len(readings))
}
