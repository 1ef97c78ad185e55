package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lunchwatch/lunchwatch/internal/domain"
	"github.com/lunchwatch/lunchwatch/internal/refresh"
)

func sampleSnapshot() *refresh.Snapshot {
	return &refresh.Snapshot{
		Assets: []domain.NormalizedAsset{
			{
				ID: 1, Source: domain.AssetSourceManual, DisplayLabel: "Savings",
				PrimaryType: "cash", Institution: "Chase",
				Balance: decimal.NewFromInt(100), Currency: "USD",
				BalanceAsOf:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				IncludedInNetWorth: true,
			},
			{
				ID: 2, Source: domain.AssetSourceLinked, DisplayLabel: "Checking",
				PrimaryType: "depository",
				Balance:     decimal.NewFromInt(200), Currency: "EUR",
				IncludedInNetWorth: true,
			},
		},
		NetWorth: domain.NetWorthSnapshot{
			PrimaryCurrency: "USD",
			TotalPrimary:    decimal.NewFromInt(100),
			PerCurrencyTotals: map[string]decimal.Decimal{
				"USD": decimal.NewFromInt(100),
				"EUR": decimal.NewFromInt(200),
			},
		},
		FetchedAt: time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC),
	}
}

func TestBalanceRows(t *testing.T) {
	rows := balanceRows(sampleSnapshot())

	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2 assets", len(rows))
	}
	if rows[0][0] != "Asset" {
		t.Errorf("header = %v", rows[0])
	}

	savings := rows[1]
	if savings[0] != "Savings" || savings[1] != "manual" || savings[4] != "100" || savings[5] != "USD" {
		t.Errorf("savings row = %v", savings)
	}
	if savings[6] != "2024-03-01" {
		t.Errorf("as-of cell = %v, want 2024-03-01", savings[6])
	}

	checking := rows[2]
	if checking[6] != "" {
		t.Errorf("missing as-of should render empty, got %v", checking[6])
	}
}

func TestTotalRows(t *testing.T) {
	rows := totalRows(sampleSnapshot())

	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + primary + 2 buckets", len(rows))
	}
	if rows[1][0] != "100" || rows[1][1] != "USD" {
		t.Errorf("primary row = %v", rows[1])
	}
	// Buckets sorted by currency code.
	if rows[2][1] != "EUR" || rows[3][1] != "USD" {
		t.Errorf("bucket rows = %v, %v", rows[2], rows[3])
	}
}

func TestTotalRowsFlagsUnknownCurrency(t *testing.T) {
	snap := sampleSnapshot()
	snap.NetWorth.PerCurrencyTotals = map[string]decimal.Decimal{
		"ZZZZ": decimal.NewFromInt(5),
	}

	rows := totalRows(snap)
	if rows[2][1] != "ZZZZ (unrecognized)" {
		t.Errorf("unknown currency label = %v", rows[2][1])
	}
}

type mockWriter struct {
	calls int
	err   error
}

func (m *mockWriter) Write(_ context.Context, _ *refresh.Snapshot) error {
	m.calls++
	return m.err
}

func TestHookContinuesPastFailingWriter(t *testing.T) {
	failing := &mockWriter{err: errors.New("quota exceeded")}
	ok := &mockWriter{}

	hook := NewHook(failing, ok)
	if err := hook.AfterRefresh(context.Background(), sampleSnapshot()); err != nil {
		t.Fatalf("AfterRefresh: %v", err)
	}

	if failing.calls != 1 || ok.calls != 1 {
		t.Errorf("writer calls = %d/%d, want 1/1", failing.calls, ok.calls)
	}
}

func TestXLSXWriterWritesFile(t *testing.T) {
	path := t.TempDir() + "/balances.xlsx"
	w := NewXLSXWriter(path)

	if err := w.Write(context.Background(), sampleSnapshot()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Rewriting must succeed as well (file is replaced, not appended).
	if err := w.Write(context.Background(), sampleSnapshot()); err != nil {
		t.Fatalf("second Write: %v", err)
	}
}
