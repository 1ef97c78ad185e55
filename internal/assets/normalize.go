// Package assets converts raw Lunch Money records of either source shape
// into the canonical NormalizedAsset form.
package assets

import (
	"fmt"

	"github.com/lunchwatch/lunchwatch/internal/domain"
	"github.com/shopspring/decimal"
)

// DropReason explains why a record was skipped during normalization.
type DropReason string

const (
	DropMissingID       DropReason = "missing_id"
	DropMissingBalance  DropReason = "missing_balance"
	DropInvalidBalance  DropReason = "invalid_balance"
	DropMissingCurrency DropReason = "missing_currency"
)

// Diagnostic records one skipped record. Skips are local to the record; the
// rest of the cycle always proceeds.
type Diagnostic struct {
	Source domain.AssetSource
	Label  string
	Reason DropReason
	Detail string
}

func (d Diagnostic) String() string {
	if d.Detail != "" {
		return fmt.Sprintf("%s asset %q dropped: %s (%s)", d.Source, d.Label, d.Reason, d.Detail)
	}
	return fmt.Sprintf("%s asset %q dropped: %s", d.Source, d.Label, d.Reason)
}

// Normalize converts raw records into normalized assets. It is total:
// malformed individual records are dropped with a diagnostic, never an error.
func Normalize(records []domain.RawAssetRecord) ([]domain.NormalizedAsset, []Diagnostic) {
	normalized := make([]domain.NormalizedAsset, 0, len(records))
	var diags []Diagnostic

	for _, rec := range records {
		switch rec.Source {
		case domain.AssetSourceManual:
			if rec.Manual == nil {
				continue
			}
			asset, diag := normalizeManual(*rec.Manual)
			if diag != nil {
				diags = append(diags, *diag)
				continue
			}
			normalized = append(normalized, asset)

		case domain.AssetSourceLinked:
			if rec.Linked == nil {
				continue
			}
			asset, diag := normalizeLinked(*rec.Linked)
			if diag != nil {
				diags = append(diags, *diag)
				continue
			}
			normalized = append(normalized, asset)
		}
	}

	return normalized, diags
}

func normalizeManual(raw domain.RawManualAsset) (domain.NormalizedAsset, *Diagnostic) {
	label := raw.DisplayName
	originalName := ""
	if label == "" {
		label = raw.Name
	} else {
		originalName = raw.Name
	}

	balance, diag := requireBalance(domain.AssetSourceManual, label, raw.ID, raw.Balance, raw.Currency)
	if diag != nil {
		return domain.NormalizedAsset{}, diag
	}

	var baseValue *decimal.Decimal
	if raw.ToBase != nil {
		v := decimal.NewFromFloat(*raw.ToBase)
		baseValue = &v
	}

	return domain.NormalizedAsset{
		ID:                 *raw.ID,
		Source:             domain.AssetSourceManual,
		DisplayLabel:       label,
		PrimaryType:        raw.TypeName,
		Subtype:            raw.SubtypeName,
		Institution:        raw.InstitutionName,
		Balance:            balance,
		Currency:           domain.NormalizeCurrency(raw.Currency),
		BalanceAsOf:        raw.BalanceAsOf.UTC(),
		BaseCurrencyValue:  baseValue,
		OriginalName:       originalName,
		IncludedInNetWorth: !raw.ExcludeFromNetWorth,
	}, nil
}

func normalizeLinked(raw domain.RawLinkedAsset) (domain.NormalizedAsset, *Diagnostic) {
	balance, diag := requireBalance(domain.AssetSourceLinked, raw.Name, raw.ID, raw.Balance, raw.Currency)
	if diag != nil {
		return domain.NormalizedAsset{}, diag
	}

	return domain.NormalizedAsset{
		ID:           *raw.ID,
		Source:       domain.AssetSourceLinked,
		DisplayLabel: raw.Name,
		PrimaryType:  raw.Type,
		Subtype:      raw.Subtype,
		Institution:  raw.InstitutionName,
		Balance:      balance,
		Currency:     domain.NormalizeCurrency(raw.Currency),
		BalanceAsOf:  raw.BalanceAsOf.UTC(),
		// Linked accounts carry no exclusion flag upstream.
		IncludedInNetWorth: true,
	}, nil
}

// requireBalance validates the fields every record must carry: id, a parsable
// balance, and a non-empty currency.
func requireBalance(source domain.AssetSource, label string, id *int64, balance *string, currency string) (decimal.Decimal, *Diagnostic) {
	if id == nil {
		return decimal.Zero, &Diagnostic{Source: source, Label: label, Reason: DropMissingID}
	}
	if balance == nil {
		return decimal.Zero, &Diagnostic{Source: source, Label: label, Reason: DropMissingBalance}
	}

	parsed, err := domain.ParseBalance(*balance)
	if err != nil {
		return decimal.Zero, &Diagnostic{
			Source: source,
			Label:  label,
			Reason: DropInvalidBalance,
			Detail: fmt.Sprintf("balance %q: %v", *balance, err),
		}
	}

	if domain.NormalizeCurrency(currency) == "" {
		return decimal.Zero, &Diagnostic{Source: source, Label: label, Reason: DropMissingCurrency}
	}

	return parsed, nil
}
