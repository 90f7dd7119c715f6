package ingest

import (
	"context"
	"log/slog"
	"time"
)

// Refresher handles periodic catalog refreshes
type Refresher struct {
	manager  *Manager
	interval time.Duration
}

// NewRefresher creates a new refresh worker
func NewRefresher(manager *Manager, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	return &Refresher{
		manager:  manager,
		interval: interval,
	}
}

// Start begins the refresh worker in a goroutine
func (r *Refresher) Start(ctx context.Context) {
	go r.run(ctx)
}

// run is the main loop for the refresh worker
func (r *Refresher) run(ctx context.Context) {
	slog.Info("refresh worker started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Run immediately on start
	r.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh worker stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	slog.Debug("running refresh cycle")

	refreshed, err := r.manager.Refresh(ctx)
	if err != nil {
		slog.Error("catalog refresh failed", "error", err)
		return
	}

	if !refreshed {
		slog.Debug("catalog unchanged")
	}
}
