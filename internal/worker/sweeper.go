package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Evicter drops expired entries and reports how many were removed.
type Evicter interface {
	EvictExpired(now time.Time) int
}

// Sweeper periodically evicts settled checkout sessions.
type Sweeper struct {
	target   Evicter
	interval time.Duration
	logger   *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewSweeper constructs sweeper worker.
func NewSweeper(target Evicter, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{target: target, interval: interval, logger: logger}
}

// Start launches background eviction.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(runCtx)
}

// Stop waits for the sweeper to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.target.EvictExpired(now); n > 0 {
				s.logger.Debug("evicted settled sessions", slog.Int("count", n))
			}
		}
	}
}
