// Package entity maps snapshots into the sensor descriptors consumed by the
// presentation layer.
package entity

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lunchwatch/lunchwatch/internal/domain"
)

// Attribution is attached to every descriptor.
const Attribution = "Data provided by Lunch Money"

const (
	namePrefix       = "Lunch Money"
	netWorthUniqueID = "lunchmoney_net_worth"
)

// Descriptor is the externally visible sensor shape: stable identity, a
// numeric state with its unit, and an attribute bag.
type Descriptor struct {
	UniqueID   string          `json:"unique_id"`
	ObjectID   string          `json:"object_id"`
	Name       string          `json:"name"`
	State      decimal.Decimal `json:"state"`
	Unit       string          `json:"unit"`
	Attributes map[string]any  `json:"attributes"`
}

// Project maps each normalized asset plus the net-worth aggregates into
// descriptors. Pure mapping, no I/O. Asset descriptors keep input order;
// aggregate descriptors follow, per-currency ones in sorted currency order.
func Project(assets []domain.NormalizedAsset, snapshot domain.NetWorthSnapshot) []Descriptor {
	out := make([]Descriptor, 0, len(assets)+1+len(snapshot.PerCurrencyTotals))

	for _, a := range assets {
		out = append(out, assetDescriptor(a))
	}

	out = append(out, Descriptor{
		UniqueID:   netWorthUniqueID,
		ObjectID:   slug(namePrefix + " Net Worth"),
		Name:       namePrefix + " Net Worth",
		State:      snapshot.TotalPrimary,
		Unit:       snapshot.PrimaryCurrency,
		Attributes: netWorthAttributes(snapshot, true),
	})

	for _, currency := range snapshot.Currencies() {
		out = append(out, Descriptor{
			UniqueID:   fmt.Sprintf("%s_%s", netWorthUniqueID, strings.ToLower(currency)),
			ObjectID:   slug(fmt.Sprintf("%s Net Worth %s", namePrefix, currency)),
			Name:       fmt.Sprintf("%s Net Worth %s", namePrefix, currency),
			State:      snapshot.PerCurrencyTotals[currency],
			Unit:       currency,
			Attributes: netWorthAttributes(snapshot, false),
		})
	}

	return out
}

func assetDescriptor(a domain.NormalizedAsset) Descriptor {
	attrs := map[string]any{
		"asset_id":              a.ID,
		"source":                string(a.Source),
		"type_name":             a.PrimaryType,
		"included_in_net_worth": a.IncludedInNetWorth,
		"attribution":           Attribution,
	}
	if a.Subtype != "" {
		attrs["subtype_name"] = a.Subtype
	}
	if a.Institution != "" {
		attrs["institution_name"] = a.Institution
	}
	if !a.BalanceAsOf.IsZero() {
		attrs["balance_as_of"] = a.BalanceAsOf.Format("2006-01-02T15:04:05Z07:00")
	}
	if a.BaseCurrencyValue != nil {
		attrs["to_base"] = a.BaseCurrencyValue.String()
	}
	if a.OriginalName != "" {
		attrs["asset_original_name"] = a.OriginalName
	}
	if info := domain.LookupCurrency(a.Currency); info.Known {
		attrs["currency_symbol"] = info.Symbol
		attrs["currency_fraction_digits"] = info.Fraction
	}

	return Descriptor{
		UniqueID: fmt.Sprintf("lunchmoney_asset_%d", a.ID),
		ObjectID: slug(fmt.Sprintf("%s %s", namePrefix, a.DisplayLabel)),
		// Original casing is preserved for display; slugging is identity-only.
		Name:       fmt.Sprintf("%s %s", namePrefix, a.DisplayLabel),
		State:      a.Balance,
		Unit:       a.Currency,
		Attributes: attrs,
	}
}

func netWorthAttributes(snapshot domain.NetWorthSnapshot, includeBuckets bool) map[string]any {
	attrs := map[string]any{
		"primary_currency": snapshot.PrimaryCurrency,
		"attribution":      Attribution,
	}
	if includeBuckets {
		buckets := make(map[string]string, len(snapshot.PerCurrencyTotals))
		for currency, total := range snapshot.PerCurrencyTotals {
			buckets[currency] = total.String()
		}
		attrs["per_currency_totals"] = buckets
	}
	return attrs
}

// slug lowercases and underscores a label for identity purposes.
func slug(label string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "_")
}
