// Package refresh owns the fetch cycle and the current snapshot pair.
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lunchwatch/lunchwatch/internal/assets"
	"github.com/lunchwatch/lunchwatch/internal/domain"
	"github.com/lunchwatch/lunchwatch/internal/lunchmoney"
	"github.com/lunchwatch/lunchwatch/internal/networth"
)

// State is the coordinator's observable lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateFetching State = "fetching"
	StateReady    State = "ready"
	StateFailed   State = "failed"
)

// Fetcher fetches raw asset records from the Lunch Money API.
type Fetcher interface {
	FetchAssets(ctx context.Context) ([]domain.RawAssetRecord, error)
}

// Settings is the read-only aggregation configuration. It is replaced
// wholesale on reconfiguration, never mutated in place.
type Settings struct {
	PrimaryCurrency string
	InversionRules  domain.InversionRuleSet
}

// Snapshot is the atomically replaced pair of normalized assets and their
// derived net-worth aggregate.
type Snapshot struct {
	Assets      []domain.NormalizedAsset `json:"assets"`
	NetWorth    domain.NetWorthSnapshot  `json:"net_worth"`
	DroppedRecs int                      `json:"dropped_records"`
	FetchedAt   time.Time                `json:"fetched_at"`
}

// ErrorInfo describes the most recent failed fetch.
type ErrorInfo struct {
	Kind    lunchmoney.ErrorKind `json:"kind"`
	Message string               `json:"message"`
	At      time.Time            `json:"at"`
}

// Coordinator drives fetch cycles and holds the last-known-good snapshot.
// It is the sole mutator of the snapshot pair; readers always observe either
// the previous snapshot or the fully committed new one.
type Coordinator struct {
	fetcher Fetcher

	mu       sync.Mutex
	state    State
	inFlight bool
	pending  bool
	settings Settings

	snap    atomic.Pointer[Snapshot]
	lastErr atomic.Pointer[ErrorInfo]
}

// New creates a Coordinator. No fetch happens until Refresh is called.
func New(fetcher Fetcher, settings Settings) *Coordinator {
	return &Coordinator{
		fetcher:  fetcher,
		state:    StateIdle,
		settings: settings,
	}
}

// Refresh runs one fetch cycle. If a cycle is already in flight the call
// coalesces: it marks at most one pending follow-up and returns immediately,
// so concurrent triggers never produce duplicate concurrent fetches.
//
// A failed cycle leaves the previously committed snapshot untouched.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlight {
		c.pending = true
		c.mu.Unlock()
		return nil
	}
	c.inFlight = true
	c.state = StateFetching
	settings := c.settings
	c.mu.Unlock()

	var lastErr error
	for {
		lastErr = c.runCycle(ctx, settings)

		c.mu.Lock()
		if lastErr == nil {
			c.state = StateReady
		} else {
			c.state = StateFailed
		}
		if c.pending && ctx.Err() == nil {
			c.pending = false
			c.state = StateFetching
			settings = c.settings
			c.mu.Unlock()
			continue
		}
		c.inFlight = false
		c.mu.Unlock()
		return lastErr
	}
}

// runCycle performs fetch → normalize → aggregate → commit.
func (c *Coordinator) runCycle(ctx context.Context, settings Settings) error {
	records, err := c.fetcher.FetchAssets(ctx)
	if err != nil {
		info := &ErrorInfo{
			Kind:    lunchmoney.KindOf(err),
			Message: err.Error(),
			At:      time.Now().UTC(),
		}
		c.lastErr.Store(info)
		slog.Error("refresh: fetch failed", "kind", info.Kind, "error", err)
		return err
	}

	normalized, diags := assets.Normalize(records)
	for _, d := range diags {
		slog.Warn("refresh: record dropped", "source", d.Source, "label", d.Label, "reason", d.Reason)
	}

	snapshot := networth.Aggregate(normalized, settings.PrimaryCurrency, settings.InversionRules)

	c.snap.Store(&Snapshot{
		Assets:      normalized,
		NetWorth:    snapshot,
		DroppedRecs: len(diags),
		FetchedAt:   time.Now().UTC(),
	})
	c.lastErr.Store(nil)

	slog.Info("refresh: snapshot committed",
		"assets", len(normalized),
		"dropped", len(diags),
		"total_primary", snapshot.TotalPrimary,
		"currencies", len(snapshot.PerCurrencyTotals))
	return nil
}

// Reconfigure replaces the aggregation settings. The already-normalized
// assets from the current snapshot are re-aggregated synchronously so readers
// see the new currency and inversion rules immediately; a fresh fetch is then
// run for consistency. An in-flight fetch is not cancelled.
func (c *Coordinator) Reconfigure(ctx context.Context, settings Settings) error {
	c.mu.Lock()
	c.settings = settings
	c.mu.Unlock()

	if current := c.snap.Load(); current != nil {
		recomputed := networth.Aggregate(current.Assets, settings.PrimaryCurrency, settings.InversionRules)
		c.snap.Store(&Snapshot{
			Assets:      current.Assets,
			NetWorth:    recomputed,
			DroppedRecs: current.DroppedRecs,
			FetchedAt:   current.FetchedAt,
		})
		slog.Info("refresh: snapshot re-aggregated after reconfiguration",
			"primary_currency", settings.PrimaryCurrency,
			"inverted_types", settings.InversionRules.Types())
	}

	return c.Refresh(ctx)
}

// Prime seeds the coordinator with a previously persisted snapshot. Only
// applied when no snapshot has been committed yet, so a slow warm-start load
// never clobbers fresh data.
func (c *Coordinator) Prime(snap *Snapshot) {
	if snap == nil {
		return
	}
	if c.snap.CompareAndSwap(nil, snap) {
		c.mu.Lock()
		if c.state == StateIdle {
			c.state = StateReady
		}
		c.mu.Unlock()
		slog.Info("refresh: primed from persisted snapshot", "assets", len(snap.Assets), "fetched_at", snap.FetchedAt)
	}
}

// Snapshot returns the last committed snapshot, or nil if no fetch has ever
// succeeded.
func (c *Coordinator) Snapshot() *Snapshot {
	return c.snap.Load()
}

// LastError returns the most recent fetch failure, or nil after a success.
func (c *Coordinator) LastError() *ErrorInfo {
	return c.lastErr.Load()
}

// State returns the coordinator's current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Settings returns the current aggregation settings.
func (c *Coordinator) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}
