package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/lunchwatch/lunchwatch/internal/refresh"
)

// Refresher triggers one fetch cycle and exposes the committed snapshot.
type Refresher interface {
	Refresh(ctx context.Context) error
	Snapshot() *refresh.Snapshot
}

// AfterRefreshHook runs after each successful refresh with the new snapshot.
type AfterRefreshHook interface {
	AfterRefresh(ctx context.Context, snap *refresh.Snapshot) error
}

// HookFunc adapts a plain function to AfterRefreshHook.
type HookFunc func(ctx context.Context, snap *refresh.Snapshot) error

func (f HookFunc) AfterRefresh(ctx context.Context, snap *refresh.Snapshot) error {
	return f(ctx, snap)
}

// RefreshWorker drives the coordinator at a fixed cadence. There is no
// backoff: a failed cycle simply waits for the next tick, so transient
// failures self-heal at the configured interval.
type RefreshWorker struct {
	refresher Refresher
	interval  time.Duration
	hooks     []AfterRefreshHook
}

// NewRefreshWorker creates a new RefreshWorker with optional post-refresh hooks.
func NewRefreshWorker(refresher Refresher, interval time.Duration, hooks ...AfterRefreshHook) *RefreshWorker {
	return &RefreshWorker{
		refresher: refresher,
		interval:  interval,
		hooks:     hooks,
	}
}

// Run starts the refresh loop. It blocks until the context is cancelled.
func (w *RefreshWorker) Run(ctx context.Context) {
	slog.Info("RefreshWorker: starting", "interval", w.interval)

	// Fetch immediately on startup
	w.cycle(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("RefreshWorker: shutting down")
			return
		case <-ticker.C:
			w.cycle(ctx)
		}
	}
}

func (w *RefreshWorker) cycle(ctx context.Context) {
	if err := w.refresher.Refresh(ctx); err != nil {
		slog.Error("RefreshWorker: refresh failed", "error", err)
		return
	}
	slog.Info("RefreshWorker: refresh completed")

	snap := w.refresher.Snapshot()
	if snap == nil {
		return
	}
	for _, hook := range w.hooks {
		if err := hook.AfterRefresh(ctx, snap); err != nil {
			slog.Error("RefreshWorker: post-refresh hook failed", "error", err)
		}
	}
}
