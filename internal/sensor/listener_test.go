package sensor

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FlareSome/Weather-Prediction/internal/observability"
)

type captureWriter struct {
	mu       sync.Mutex
	readings []Reading
}

func (w *captureWriter) InsertReading(ctx context.Context, r Reading) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.readings = append(w.readings, r)
	return nil
}

func (w *captureWriter) all() []Reading {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Reading(nil), w.readings...)
}

func TestReadLoopPersistsValidPackets(t *testing.T) {
	input := strings.Join([]string{
		"boot banner",
		`{"temperature":20.5,"humidity":60.0,"rain_digital":1}`,
		"",
		"debug: wifi rssi -70",
		`{"temperature":21.0,"humidity":59.0,"rain_digital":0}`,
	}, "\n")

	w := &captureWriter{}
	l := NewListener(ListenerConfig{Port: "/dev/ttyUSB0", Baud: 9600}, w, observability.NewMetricsForTesting(), zap.NewNop().Sugar())

	l.readLoop(context.Background(), strings.NewReader(input))

	got := w.all()
	require.Len(t, got, 2)
	assert.Equal(t, 20.5, got[0].TemperatureC)
	assert.Equal(t, StatusDry, got[0].Status)
	assert.Equal(t, StatusWet, got[1].Status)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := &captureWriter{}
	l := NewListener(ListenerConfig{Port: "/dev/null", Baud: 9600, RetryDelay: time.Millisecond}, w, observability.NewMetricsForTesting(), zap.NewNop().Sugar())

	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Empty(t, w.all())
}
