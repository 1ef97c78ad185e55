package domain

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// NetWorthSnapshot is the aggregate produced from one normalized asset list.
type NetWorthSnapshot struct {
	PrimaryCurrency string `json:"primary_currency"`

	// TotalPrimary sums, in the primary currency, every included asset whose
	// conversion is known (native currency match or upstream-supplied base
	// value). Assets without a known conversion are left out.
	TotalPrimary decimal.Decimal `json:"total_primary"`

	// PerCurrencyTotals sums post-inversion native balances grouped by
	// currency. Every currency appearing in any included asset has a bucket,
	// whether or not it contributed to TotalPrimary.
	PerCurrencyTotals map[string]decimal.Decimal `json:"per_currency_totals"`
}

// Currencies returns the bucket keys in sorted order.
func (s NetWorthSnapshot) Currencies() []string {
	codes := make([]string, 0, len(s.PerCurrencyTotals))
	for code := range s.PerCurrencyTotals {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// InversionRuleSet holds the asset types whose balances are sign-flipped
// before aggregation, so liabilities subtract from net worth. Matching is
// case-insensitive. The zero value inverts nothing.
type InversionRuleSet struct {
	types map[string]struct{}
}

// NewInversionRuleSet builds a rule set from type names. Names are trimmed
// and lowercased; empty names are ignored.
func NewInversionRuleSet(types ...string) InversionRuleSet {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		set[t] = struct{}{}
	}
	return InversionRuleSet{types: set}
}

// DefaultInversionRules returns the default rule set: credit and loan.
func DefaultInversionRules() InversionRuleSet {
	return NewInversionRuleSet("credit", "loan")
}

// Inverts reports whether balances of the given primary type are sign-flipped.
func (s InversionRuleSet) Inverts(primaryType string) bool {
	_, ok := s.types[strings.ToLower(strings.TrimSpace(primaryType))]
	return ok
}

// Types returns the rule set contents in sorted order.
func (s InversionRuleSet) Types() []string {
	out := make([]string, 0, len(s.types))
	for t := range s.types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
