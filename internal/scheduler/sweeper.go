// Package scheduler runs the periodic completion sweep.
package scheduler

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"
)

type completer interface {
	CompleteElapsed(ctx context.Context) (int, error)
}

// Sweeper persists the completion of elapsed approved bookings on a fixed
// interval.  Reads already show such bookings as completed, so a missed
// tick only delays the stored status.
type Sweeper struct {
	target   completer
	interval time.Duration
	logger   *log.Logger
}

// New returns a Sweeper calling target every interval.
func New(target completer, interval time.Duration, logger *log.Logger) *Sweeper {
	return &Sweeper{target: target, interval: interval, logger: logger}
}

// Start sweeps once immediately, then on every tick until ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Infoj(log.JSON{"msg": "sweeper started", "interval": s.interval.String()})
	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	n, err := s.target.CompleteElapsed(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Errorj(log.JSON{"msg": "completion sweep failed", "error": err.Error()})
		}
		return
	}
	if n > 0 {
		s.logger.Debugj(log.JSON{"msg": "completion sweep", "completed": n})
	}
}
