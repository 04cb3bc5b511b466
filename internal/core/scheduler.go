package core

// scheduler.go reloads the document in the background.
//
// The scheduler is long-running and stops when its context is cancelled.
// A failed reload is logged and recorded in Status; the previous snapshot
// stays in place and the next tick tries again.

import (
	"context"
	"log/slog"
	"time"
)

// StartRefreshScheduler reloads every interval until ctx is cancelled.
// It does not load immediately; the caller performs the initial load.
// A non-positive interval returns at once.
func (s *Service) StartRefreshScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	slog.Info("refresh scheduler started", "interval", interval.String(), "source", s.src.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx = ContextWithTrigger(ctx, TriggerScheduler)
	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			s.runRefresh(ctx)
		}
	}
}

func (s *Service) runRefresh(ctx context.Context) {
	if s.Status().Loading {
		slog.Debug("refresh skipped, load already running")
		return
	}
	// Load logs the outcome itself.
	s.Load(ctx)
}
