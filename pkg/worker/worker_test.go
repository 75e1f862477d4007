package worker

import (
	"testing"

	"github.com/rstamps01/image-to-text/pkg/logger"
)

func TestStopIsIdempotent(t *testing.T) {
	cfg := &Config{
		RedisAddr:   "localhost:6379",
		Concurrency: 1,
		Queues:      map[string]int{"default": 1},
	}

	w, err := NewPageWorker(cfg, nil, logger.NewTestLogger())
	if err != nil {
		t.Fatalf("NewPageWorker: %v", err)
	}

	// Shutdown can arrive twice: once from context cancellation and once
	// from the main's explicit Stop. Neither call may panic.
	if err := w.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}

	select {
	case <-w.stopChan:
	default:
		t.Error("stopChan should be closed after Stop")
	}
}
