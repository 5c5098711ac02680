package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SweepFunc deletes expired refresh tokens and reports how many rows went.
type SweepFunc func(ctx context.Context) (int64, error)

// Sweeper runs the expired-refresh-token purge on a fixed interval. It is
// owned by the service lifecycle: main starts it after wiring and stops it
// during shutdown. The sweep never runs on a request goroutine.
type Sweeper struct {
	interval time.Duration
	sweep    SweepFunc
	logger   *zap.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper builds a sweeper; interval must be positive.
func NewSweeper(interval time.Duration, sweep SweepFunc, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		interval: interval,
		sweep:    sweep,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. One immediate sweep runs at startup so a
// restart does not leave a backlog waiting a full interval.
func (s *Sweeper) Start() {
	go s.run()
}

func (s *Sweeper) run() {
	defer close(s.done)

	s.runOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-s.stop:
			return
		}
	}
}

func (s *Sweeper) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.sweep(ctx); err != nil {
		s.logger.Error("refresh token sweep failed", zap.Error(err))
	}
}

// Stop terminates the loop and waits for the in-flight sweep to finish.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}
