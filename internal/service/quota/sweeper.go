package quota

import (
	"context"
	"log/slog"
	"time"

	"github.com/oggyb/matchmaker/internal/repository"
)

// Sweeper periodically runs the eager reset so idle profiles show a fresh
// counter without waiting for their next swipe.
type Sweeper struct {
	tracker  *Tracker
	profiles *repository.ProfileRepository
	interval time.Duration
	log      *slog.Logger
}

func NewSweeper(tracker *Tracker, profiles *repository.ProfileRepository, interval time.Duration, log *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{tracker: tracker, profiles: profiles, interval: interval, log: log}
}

// Run sweeps once immediately, then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info("starting quota sweeper", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.SweepOnce(ctx)

		select {
		case <-ctx.Done():
			s.log.Info("quota sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce runs a single eager reset and logs the outcome.
func (s *Sweeper) SweepOnce(ctx context.Context) int64 {
	n, err := s.tracker.ResetStale(ctx, s.profiles)
	if err != nil {
		s.log.Error("quota sweep failed", "err", err)
		return 0
	}
	if n > 0 {
		s.log.Debug("quota sweep reset profiles", "count", n)
	}
	return n
}
