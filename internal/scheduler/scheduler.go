// Package scheduler runs periodic retention pruning of the memory log.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Pruner removes memories older than a retention window.
type Pruner interface {
	PruneExpired(ctx context.Context, retentionDays int) (int, error)
}

// Scheduler handles periodic retention pruning
type Scheduler struct {
	pruner   Pruner
	interval time.Duration
	days     int
	logger   *zap.Logger
	stopChan chan struct{}
	done     chan struct{}
}

// NewScheduler creates a new scheduler
func NewScheduler(p Pruner, interval time.Duration, retentionDays int, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		pruner:   p,
		interval: interval,
		days:     retentionDays,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the scheduler in the background. Stop must be called to
// release it.
func (s *Scheduler) Start() {
	go func() {
		_ = s.Run(context.Background())
	}()
}

// Stop stops the scheduler and waits for an in-progress prune to finish.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	<-s.done
}

// Run prunes once immediately, then on every tick until ctx is done or
// Stop is called.
func (s *Scheduler) Run(ctx context.Context) error {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.pruneOnce(ctx)
	for {
		select {
		case <-ticker.C:
			s.pruneOnce(ctx)
		case <-s.stopChan:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Scheduler) pruneOnce(ctx context.Context) {
	removed, err := s.pruner.PruneExpired(ctx, s.days)
	if err != nil {
		s.logger.Warn("retention prune failed", zap.Int("retention_days", s.days), zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Debug("retention prune complete", zap.Int("removed", removed), zap.Int("retention_days", s.days))
	}
}
