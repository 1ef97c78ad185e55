// Package networth computes multi-currency net-worth aggregates from
// normalized asset lists.
package networth

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/lunchwatch/lunchwatch/internal/domain"
)

// Aggregate computes the net-worth snapshot for the given assets. Pure and
// order-independent: any permutation of assets yields the same snapshot.
//
// Every included asset lands in its native currency bucket. Contribution to
// the primary total requires a known conversion: either the asset is already
// in the primary currency, or the upstream supplied a base-currency value.
// No exchange rate is ever estimated here.
func Aggregate(assets []domain.NormalizedAsset, primaryCurrency string, rules domain.InversionRuleSet) domain.NetWorthSnapshot {
	primary := domain.NormalizeCurrency(primaryCurrency)

	included := lo.Filter(assets, func(a domain.NormalizedAsset, _ int) bool {
		return a.IncludedInNetWorth
	})

	totalPrimary := decimal.Zero
	perCurrency := make(map[string]decimal.Decimal, len(included))

	for _, a := range included {
		inverted := rules.Inverts(a.PrimaryType)

		signed := a.Balance
		if inverted {
			signed = signed.Neg()
		}

		currency := domain.NormalizeCurrency(a.Currency)
		perCurrency[currency] = perCurrency[currency].Add(signed)

		switch {
		case currency == primary:
			totalPrimary = totalPrimary.Add(signed)
		case a.BaseCurrencyValue != nil:
			// The same inversion flag applies to the converted value.
			base := *a.BaseCurrencyValue
			if inverted {
				base = base.Neg()
			}
			totalPrimary = totalPrimary.Add(base)
		}
	}

	return domain.NetWorthSnapshot{
		PrimaryCurrency:   primary,
		TotalPrimary:      totalPrimary,
		PerCurrencyTotals: perCurrency,
	}
}
