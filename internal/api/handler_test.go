package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lunchwatch/lunchwatch/internal/domain"
	"github.com/lunchwatch/lunchwatch/internal/refresh"
)

type mockCoordinator struct {
	snap          *refresh.Snapshot
	lastErr       *refresh.ErrorInfo
	state         refresh.State
	settings      refresh.Settings
	refreshErr    error
	refreshCalls  int
	lastSettings  refresh.Settings
	reconfigCalls int
}

func (m *mockCoordinator) Refresh(_ context.Context) error {
	m.refreshCalls++
	return m.refreshErr
}

func (m *mockCoordinator) Reconfigure(_ context.Context, settings refresh.Settings) error {
	m.reconfigCalls++
	m.lastSettings = settings
	m.settings = settings
	return m.refreshErr
}

func (m *mockCoordinator) Snapshot() *refresh.Snapshot      { return m.snap }
func (m *mockCoordinator) LastError() *refresh.ErrorInfo    { return m.lastErr }
func (m *mockCoordinator) State() refresh.State             { return m.state }
func (m *mockCoordinator) Settings() refresh.Settings       { return m.settings }

func readySnapshot() *refresh.Snapshot {
	return &refresh.Snapshot{
		Assets: []domain.NormalizedAsset{
			{
				ID: 1, Source: domain.AssetSourceManual, DisplayLabel: "Savings",
				PrimaryType: "cash", Balance: decimal.NewFromInt(100), Currency: "USD",
				IncludedInNetWorth: true,
			},
		},
		NetWorth: domain.NetWorthSnapshot{
			PrimaryCurrency:   "USD",
			TotalPrimary:      decimal.NewFromInt(100),
			PerCurrencyTotals: map[string]decimal.Decimal{"USD": decimal.NewFromInt(100)},
		},
		FetchedAt: time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC),
	}
}

func newTestHandler(mock *mockCoordinator) *Handler {
	return NewHandler(mock, 12*time.Hour)
}

func TestGetEntitiesServesSnapshot(t *testing.T) {
	mock := &mockCoordinator{snap: readySnapshot(), state: refresh.StateReady}
	handler := newTestHandler(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entities", nil)
	w := httptest.NewRecorder()
	handler.GetEntities(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Entities  []map[string]any `json:"entities"`
		Available bool             `json:"available"`
	}
	json.NewDecoder(w.Body).Decode(&resp)

	if !resp.Available {
		t.Error("available = false, want true")
	}
	// 1 asset + primary net worth + 1 currency bucket
	if len(resp.Entities) != 3 {
		t.Fatalf("entities = %d, want 3", len(resp.Entities))
	}
	if resp.Entities[0]["unique_id"] != "lunchmoney_asset_1" {
		t.Errorf("first entity = %v", resp.Entities[0]["unique_id"])
	}
}

func TestGetEntitiesEmptyBeforeFirstFetch(t *testing.T) {
	mock := &mockCoordinator{state: refresh.StateIdle}
	handler := newTestHandler(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entities", nil)
	w := httptest.NewRecorder()
	handler.GetEntities(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even with no snapshot", w.Code)
	}

	var resp struct {
		Entities  []map[string]any `json:"entities"`
		Available bool             `json:"available"`
	}
	json.NewDecoder(w.Body).Decode(&resp)

	if resp.Available {
		t.Error("available = true, want false")
	}
	if len(resp.Entities) != 0 {
		t.Errorf("entities = %d, want 0", len(resp.Entities))
	}
}

func TestGetNetWorthNotFoundBeforeFirstFetch(t *testing.T) {
	handler := newTestHandler(&mockCoordinator{state: refresh.StateIdle})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/networth", nil)
	w := httptest.NewRecorder()
	handler.GetNetWorth(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetStatusIncludesLastError(t *testing.T) {
	mock := &mockCoordinator{
		snap:  readySnapshot(),
		state: refresh.StateFailed,
		lastErr: &refresh.ErrorInfo{
			Kind:    "connectivity",
			Message: "HTTP 502",
			At:      time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC),
		},
		settings: refresh.Settings{
			PrimaryCurrency: "usd",
			InversionRules:  domain.DefaultInversionRules(),
		},
	}
	handler := newTestHandler(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	handler.GetStatus(w, req)

	var status map[string]any
	json.NewDecoder(w.Body).Decode(&status)

	if status["state"] != "failed" {
		t.Errorf("state = %v, want failed", status["state"])
	}
	if status["primary_currency"] != "USD" {
		t.Errorf("primary_currency = %v, want USD", status["primary_currency"])
	}
	if status["update_interval"] != "12h0m0s" {
		t.Errorf("update_interval = %v", status["update_interval"])
	}
	lastErr, ok := status["last_error"].(map[string]any)
	if !ok {
		t.Fatal("last_error missing from status")
	}
	if lastErr["kind"] != "connectivity" {
		t.Errorf("last_error kind = %v", lastErr["kind"])
	}
	if status["last_success"] == nil {
		t.Error("last_success should still be present from the retained snapshot")
	}
}

func TestTriggerRefresh(t *testing.T) {
	mock := &mockCoordinator{state: refresh.StateReady}
	handler := newTestHandler(mock)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)
	w := httptest.NewRecorder()
	handler.TriggerRefresh(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if mock.refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want 1", mock.refreshCalls)
	}
}

func TestUpdateSettingsReconfigures(t *testing.T) {
	mock := &mockCoordinator{state: refresh.StateReady}
	handler := newTestHandler(mock)

	body := strings.NewReader(`{"primary_currency":"EUR","inverted_asset_types":["loan"]}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", body)
	w := httptest.NewRecorder()
	handler.UpdateSettings(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if mock.reconfigCalls != 1 {
		t.Fatalf("reconfigure calls = %d, want 1", mock.reconfigCalls)
	}
	if mock.lastSettings.PrimaryCurrency != "EUR" {
		t.Errorf("primary currency = %q, want EUR", mock.lastSettings.PrimaryCurrency)
	}
	if !mock.lastSettings.InversionRules.Inverts("loan") || mock.lastSettings.InversionRules.Inverts("credit") {
		t.Error("inversion rules not replaced wholesale")
	}
}

func TestUpdateSettingsRequiresCurrency(t *testing.T) {
	mock := &mockCoordinator{}
	handler := newTestHandler(mock)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	handler.UpdateSettings(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if mock.reconfigCalls != 0 {
		t.Error("reconfigure should not run on invalid payload")
	}
}
