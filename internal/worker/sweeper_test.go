package worker

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type evicterStub struct {
	calls atomic.Int32
}

func (e *evicterStub) EvictExpired(time.Time) int {
	e.calls.Add(1)
	return 1
}

func TestNewSweeperDefaults(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	s := NewSweeper(&evicterStub{}, 0, logger)
	if s.interval != time.Minute {
		t.Fatalf("expected default interval of one minute, got %v", s.interval)
	}
}

func TestSweeperEvictsPeriodically(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	target := &evicterStub{}
	s := NewSweeper(target, 5*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	deadline := time.After(500 * time.Millisecond)
	for target.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for eviction")
		case <-time.After(5 * time.Millisecond):
		}
	}
	s.Stop()

	after := target.calls.Load()
	time.Sleep(20 * time.Millisecond)
	if target.calls.Load() != after {
		t.Fatal("sweeper kept running after stop")
	}
}

func TestSweeperStopWithoutStart(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	NewSweeper(&evicterStub{}, time.Second, logger).Stop()
}
