package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/lunchwatch/lunchwatch/internal/domain"
	"github.com/lunchwatch/lunchwatch/internal/entity"
	"github.com/lunchwatch/lunchwatch/internal/lunchmoney"
	"github.com/lunchwatch/lunchwatch/internal/refresh"
)

// Coordinator is the coordinator surface the handlers consume.
type Coordinator interface {
	Refresh(ctx context.Context) error
	Reconfigure(ctx context.Context, settings refresh.Settings) error
	Snapshot() *refresh.Snapshot
	LastError() *refresh.ErrorInfo
	State() refresh.State
	Settings() refresh.Settings
}

// Handler provides HTTP endpoints over the coordinator's snapshot.
type Handler struct {
	coordinator Coordinator
	interval    time.Duration
}

// NewHandler creates a new API handler.
func NewHandler(coordinator Coordinator, interval time.Duration) *Handler {
	return &Handler{coordinator: coordinator, interval: interval}
}

// GetEntities handles GET /api/v1/entities. Always serves the last good
// snapshot; an empty list before the first successful fetch.
func (h *Handler) GetEntities(w http.ResponseWriter, r *http.Request) {
	snap := h.coordinator.Snapshot()
	if snap == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"entities":  []entity.Descriptor{},
			"available": false,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entities":   entity.Project(snap.Assets, snap.NetWorth),
		"available":  true,
		"fetched_at": snap.FetchedAt,
	})
}

// GetAssets handles GET /api/v1/assets.
func (h *Handler) GetAssets(w http.ResponseWriter, r *http.Request) {
	snap := h.coordinator.Snapshot()
	if snap == nil {
		writeJSON(w, http.StatusOK, map[string]any{"assets": []domain.NormalizedAsset{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"assets":     snap.Assets,
		"fetched_at": snap.FetchedAt,
	})
}

// GetNetWorth handles GET /api/v1/networth.
func (h *Handler) GetNetWorth(w http.ResponseWriter, r *http.Request) {
	snap := h.coordinator.Snapshot()
	if snap == nil {
		writeError(w, http.StatusNotFound, "no snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, snap.NetWorth)
}

// GetStatus handles GET /api/v1/status.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	settings := h.coordinator.Settings()

	status := map[string]any{
		"state":            h.coordinator.State(),
		"update_interval":  h.interval.String(),
		"primary_currency": domain.NormalizeCurrency(settings.PrimaryCurrency),
		"inverted_types":   settings.InversionRules.Types(),
	}
	if snap := h.coordinator.Snapshot(); snap != nil {
		status["last_success"] = snap.FetchedAt
		status["asset_count"] = len(snap.Assets)
		status["dropped_records"] = snap.DroppedRecs
	}
	if lastErr := h.coordinator.LastError(); lastErr != nil {
		status["last_error"] = lastErr
	}

	writeJSON(w, http.StatusOK, status)
}

// TriggerRefresh handles POST /api/v1/refresh. The refresh runs synchronously;
// a trigger racing an in-flight cycle coalesces and returns immediately.
func (h *Handler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.Refresh(r.Context()); err != nil {
		slog.Error("manual refresh failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": "refresh failed",
			"kind":  lunchmoney.KindOf(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

// UpdateSettings handles PUT /api/v1/settings. Currency and inversion changes
// re-aggregate the current snapshot immediately and then trigger a fresh fetch.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PrimaryCurrency    string   `json:"primary_currency"`
		InvertedAssetTypes []string `json:"inverted_asset_types"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings payload")
		return
	}
	if req.PrimaryCurrency == "" {
		writeError(w, http.StatusBadRequest, "primary_currency is required")
		return
	}

	settings := refresh.Settings{
		PrimaryCurrency: req.PrimaryCurrency,
		InversionRules:  domain.NewInversionRuleSet(req.InvertedAssetTypes...),
	}
	if err := h.coordinator.Reconfigure(r.Context(), settings); err != nil {
		// Settings are applied and the snapshot re-aggregated even if the
		// consistency fetch failed; report the partial outcome.
		slog.Error("post-reconfigure fetch failed", "error", err)
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "settings applied, refresh failed",
			"kind":   lunchmoney.KindOf(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "settings applied"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
