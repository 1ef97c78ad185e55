package assets

import (
	"testing"
	"time"

	"github.com/lunchwatch/lunchwatch/internal/domain"
)

func int64Ptr(v int64) *int64    { return &v }
func strPtr(v string) *string    { return &v }
func floatPtr(v float64) *float64 { return &v }

var asOf = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNormalizeManualAsset(t *testing.T) {
	records := []domain.RawAssetRecord{
		domain.ManualRecord(domain.RawManualAsset{
			ID:              int64Ptr(11),
			Name:            "brokerage account",
			DisplayName:     "Brokerage",
			TypeName:        "investment",
			SubtypeName:     "brokerage",
			InstitutionName: "Vanguard",
			Balance:         strPtr("2500.50"),
			Currency:        "usd",
			BalanceAsOf:     asOf,
			ToBase:          floatPtr(2500.50),
		}),
	}

	normalized, diags := Normalize(records)
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v, want none", diags)
	}
	if len(normalized) != 1 {
		t.Fatalf("normalized = %d assets, want 1", len(normalized))
	}

	a := normalized[0]
	if a.ID != 11 {
		t.Errorf("ID = %d, want 11", a.ID)
	}
	if a.Source != domain.AssetSourceManual {
		t.Errorf("Source = %s, want manual", a.Source)
	}
	if a.DisplayLabel != "Brokerage" {
		t.Errorf("DisplayLabel = %q, want display name override", a.DisplayLabel)
	}
	if a.OriginalName != "brokerage account" {
		t.Errorf("OriginalName = %q, want original name kept", a.OriginalName)
	}
	if a.PrimaryType != "investment" || a.Subtype != "brokerage" {
		t.Errorf("type/subtype = %q/%q", a.PrimaryType, a.Subtype)
	}
	if a.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", a.Currency)
	}
	if a.Balance.String() != "2500.5" {
		t.Errorf("Balance = %s, want 2500.5", a.Balance)
	}
	if a.BaseCurrencyValue == nil || a.BaseCurrencyValue.String() != "2500.5" {
		t.Errorf("BaseCurrencyValue = %v, want 2500.5", a.BaseCurrencyValue)
	}
	if !a.IncludedInNetWorth {
		t.Error("IncludedInNetWorth = false, want true")
	}
}

func TestNormalizeManualAssetWithoutDisplayName(t *testing.T) {
	records := []domain.RawAssetRecord{
		domain.ManualRecord(domain.RawManualAsset{
			ID:          int64Ptr(12),
			Name:        "Cash Jar",
			TypeName:    "cash",
			Balance:     strPtr("90"),
			Currency:    "USD",
			BalanceAsOf: asOf,
		}),
	}

	normalized, _ := Normalize(records)
	if len(normalized) != 1 {
		t.Fatalf("normalized = %d assets, want 1", len(normalized))
	}
	if normalized[0].DisplayLabel != "Cash Jar" {
		t.Errorf("DisplayLabel = %q, want fallback to name", normalized[0].DisplayLabel)
	}
	if normalized[0].OriginalName != "" {
		t.Errorf("OriginalName = %q, want empty without override", normalized[0].OriginalName)
	}
}

func TestNormalizeExcludedManualAsset(t *testing.T) {
	records := []domain.RawAssetRecord{
		domain.ManualRecord(domain.RawManualAsset{
			ID:                  int64Ptr(13),
			Name:                "Old 401k",
			TypeName:            "investment",
			Balance:             strPtr("100"),
			Currency:            "USD",
			BalanceAsOf:         asOf,
			ExcludeFromNetWorth: true,
		}),
	}

	normalized, _ := Normalize(records)
	if len(normalized) != 1 {
		t.Fatalf("normalized = %d assets, want 1", len(normalized))
	}
	if normalized[0].IncludedInNetWorth {
		t.Error("excluded asset should have IncludedInNetWorth = false")
	}
}

func TestNormalizeLinkedAsset(t *testing.T) {
	records := []domain.RawAssetRecord{
		domain.LinkedRecord(domain.RawLinkedAsset{
			ID:              int64Ptr(21),
			Name:            "Everyday Checking",
			Type:            "depository",
			Subtype:         "checking",
			Mask:            "4321",
			InstitutionName: "Chase",
			Balance:         strPtr("-12.30"),
			Currency:        " eur ",
			BalanceAsOf:     asOf,
		}),
	}

	normalized, diags := Normalize(records)
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v, want none", diags)
	}

	a := normalized[0]
	if a.Source != domain.AssetSourceLinked {
		t.Errorf("Source = %s, want linked", a.Source)
	}
	if a.PrimaryType != "depository" || a.Subtype != "checking" {
		t.Errorf("type/subtype = %q/%q", a.PrimaryType, a.Subtype)
	}
	if a.Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR", a.Currency)
	}
	if a.Balance.String() != "-12.3" {
		t.Errorf("Balance = %s, want -12.3 (no clamping)", a.Balance)
	}
	if a.BaseCurrencyValue != nil {
		t.Error("linked asset should have no base currency value")
	}
	if !a.IncludedInNetWorth {
		t.Error("linked assets are always included")
	}
}

func TestNormalizeDropsBrokenRecords(t *testing.T) {
	records := []domain.RawAssetRecord{
		domain.ManualRecord(domain.RawManualAsset{
			Name: "no id", TypeName: "cash", Balance: strPtr("1"), Currency: "USD",
		}),
		domain.ManualRecord(domain.RawManualAsset{
			ID: int64Ptr(2), Name: "no balance", TypeName: "cash", Currency: "USD",
		}),
		domain.ManualRecord(domain.RawManualAsset{
			ID: int64Ptr(3), Name: "bad balance", TypeName: "cash", Balance: strPtr("??"), Currency: "USD",
		}),
		domain.LinkedRecord(domain.RawLinkedAsset{
			ID: int64Ptr(4), Name: "no currency", Type: "depository", Balance: strPtr("5"), Currency: "  ",
		}),
		domain.ManualRecord(domain.RawManualAsset{
			ID: int64Ptr(5), Name: "good", TypeName: "cash", Balance: strPtr("10"), Currency: "USD",
		}),
	}

	normalized, diags := Normalize(records)
	if len(normalized) != 1 {
		t.Fatalf("normalized = %d assets, want only the valid one", len(normalized))
	}
	if normalized[0].ID != 5 {
		t.Errorf("surviving asset ID = %d, want 5", normalized[0].ID)
	}
	if len(diags) != 4 {
		t.Fatalf("diagnostics = %d, want 4", len(diags))
	}

	wantReasons := []DropReason{DropMissingID, DropMissingBalance, DropInvalidBalance, DropMissingCurrency}
	for i, want := range wantReasons {
		if diags[i].Reason != want {
			t.Errorf("diagnostic %d reason = %s, want %s", i, diags[i].Reason, want)
		}
	}
}

func TestNormalizeMissingCurrencyCountsOneDiagnostic(t *testing.T) {
	records := []domain.RawAssetRecord{
		domain.ManualRecord(domain.RawManualAsset{
			ID: int64Ptr(1), Name: "ok", TypeName: "cash", Balance: strPtr("100"), Currency: "USD",
		}),
		domain.ManualRecord(domain.RawManualAsset{
			ID: int64Ptr(2), Name: "broken", TypeName: "cash", Balance: strPtr("50"), Currency: "",
		}),
	}

	normalized, diags := Normalize(records)
	if len(normalized) != 1 {
		t.Errorf("normalized = %d, want 1", len(normalized))
	}
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %d, want 1", len(diags))
	}
	if diags[0].Reason != DropMissingCurrency {
		t.Errorf("reason = %s, want missing_currency", diags[0].Reason)
	}
}
