// Package application contains use-case orchestration services.
package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/coviddash/internal/domain/port/driven"
)

// RefreshStatus describes the outcome of the most recent refresh cycle.
type RefreshStatus struct {
	At       time.Time
	Duration time.Duration
	Err      error
	Warnings int
}

// refreshRequest represents a manual refresh trigger.
type refreshRequest struct {
	done chan error
}

// RefreshService periodically re-fetches the upstream sources, rebuilds the
// default dashboard and publishes it to live subscribers.
type RefreshService struct {
	dashboards *DashboardService
	publisher  driven.Publisher
	interval   time.Duration
	refreshCh  chan refreshRequest

	mu   sync.RWMutex
	last RefreshStatus
}

// NewRefreshService creates a new RefreshService. publisher may be nil.
func NewRefreshService(dashboards *DashboardService, publisher driven.Publisher, interval time.Duration) *RefreshService {
	return &RefreshService{
		dashboards: dashboards,
		publisher:  publisher,
		interval:   interval,
		refreshCh:  make(chan refreshRequest),
	}
}

// Start runs an immediate refresh, then refreshes on the configured interval
// and on manual requests. Start blocks until the context is canceled.
func (s *RefreshService) Start(ctx context.Context) {
	if err := s.refresh(ctx); err != nil {
		slog.Error("initial refresh failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh service stopped")
			return
		case <-ticker.C:
			if err := s.refresh(ctx); err != nil {
				slog.Error("refresh cycle failed", "error", err)
			}
		case req := <-s.refreshCh:
			req.done <- s.refresh(ctx)
		}
	}
}

// Refresh triggers a refresh cycle outside the interval. It blocks until the
// cycle completes or the context is canceled.
func (s *RefreshService) Refresh(ctx context.Context) error {
	done := make(chan error, 1)

	select {
	case s.refreshCh <- refreshRequest{done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastRefresh returns the status of the most recent cycle. At is zero before
// the first cycle completes.
func (s *RefreshService) LastRefresh() RefreshStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// refresh fetches every source, rebuilds the default dashboard and publishes
// it. Source failures are logged and reported; the dashboard is still built
// from whatever snapshots exist.
func (s *RefreshService) refresh(ctx context.Context) error {
	start := time.Now()

	fetchErr := s.dashboards.RefreshSources(ctx)
	if fetchErr != nil {
		slog.Warn("some sources failed to refresh", "error", fetchErr)
	}

	status := RefreshStatus{At: start.UTC(), Err: fetchErr}

	d, err := s.dashboards.Build(ctx, DashboardQuery{})
	if err != nil {
		status.Err = err
	} else {
		status.Warnings = len(d.Warnings)
		if s.publisher != nil {
			s.publisher.Publish(d)
		}
	}
	status.Duration = time.Since(start)

	s.mu.Lock()
	s.last = status
	s.mu.Unlock()

	slog.Info("refresh cycle complete",
		"warnings", status.Warnings,
		"failed", status.Err != nil,
		"duration", status.Duration.Round(time.Millisecond),
	)

	return status.Err
}
