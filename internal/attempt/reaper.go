package attempt

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reaper periodically evicts idle attempts from a Manager.
type Reaper struct {
	manager   *Manager
	interval  time.Duration
	retention time.Duration
	logger    zerolog.Logger
}

func NewReaper(manager *Manager, interval, retention time.Duration, logger zerolog.Logger) *Reaper {
	if interval <= 0 {
		interval = time.Minute
	}
	if retention <= 0 {
		retention = 2 * time.Hour
	}
	return &Reaper{
		manager:   manager,
		interval:  interval,
		retention: retention,
		logger:    logger.With().Str("component", "attempt_reaper").Logger(),
	}
}

// Run blocks until context cancellation.
func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := r.manager.Reap(r.retention); n > 0 {
				r.logger.Info().Int("evicted", n).Int("remaining", r.manager.Len()).Msg("reaped attempts")
			}
		}
	}
}
