// Package export writes the current snapshot to spreadsheet destinations.
// Each export overwrites the previous contents; no history accumulates.
package export

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"github.com/lunchwatch/lunchwatch/internal/domain"
	"github.com/lunchwatch/lunchwatch/internal/refresh"
)

// Column layout shared by every writer.
var balanceHeader = []any{"Asset", "Source", "Type", "Institution", "Balance", "Currency", "As Of", "In Net Worth"}

// SnapshotWriter writes one snapshot to a spreadsheet destination.
type SnapshotWriter interface {
	Write(ctx context.Context, snap *refresh.Snapshot) error
}

// Hook fans a snapshot out to all configured writers after each refresh.
// Writer failures are logged and do not affect other writers or the cycle.
type Hook struct {
	writers []SnapshotWriter
}

// NewHook creates an export hook over the given writers.
func NewHook(writers ...SnapshotWriter) *Hook {
	return &Hook{writers: writers}
}

// AfterRefresh implements the worker hook contract.
func (h *Hook) AfterRefresh(ctx context.Context, snap *refresh.Snapshot) error {
	for _, w := range h.writers {
		if err := w.Write(ctx, snap); err != nil {
			slog.Error("export: writer failed", "error", err)
		}
	}
	return nil
}

// balanceRows builds the per-asset sheet rows.
func balanceRows(snap *refresh.Snapshot) [][]any {
	rows := make([][]any, 0, len(snap.Assets)+1)
	rows = append(rows, balanceHeader)

	for _, a := range snap.Assets {
		asOf := ""
		if !a.BalanceAsOf.IsZero() {
			asOf = a.BalanceAsOf.Format("2006-01-02")
		}
		rows = append(rows, []any{
			a.DisplayLabel,
			string(a.Source),
			a.PrimaryType,
			a.Institution,
			a.Balance.String(),
			a.Currency,
			asOf,
			a.IncludedInNetWorth,
		})
	}
	return rows
}

// totalRows builds the net-worth sheet rows: the primary total first, then
// one row per currency bucket in sorted order.
func totalRows(snap *refresh.Snapshot) [][]any {
	nw := snap.NetWorth
	rows := [][]any{
		{"Total", "Currency"},
		{nw.TotalPrimary.String(), nw.PrimaryCurrency},
	}
	return append(rows, lo.Map(nw.Currencies(), func(currency string, _ int) []any {
		return []any{nw.PerCurrencyTotals[currency].String(), currencyLabel(currency)}
	})...)
}

// currencyLabel annotates unknown currency codes so a typo upstream is
// visible in the exported sheet.
func currencyLabel(code string) string {
	if info := domain.LookupCurrency(code); !info.Known {
		return code + " (unrecognized)"
	}
	return code
}
