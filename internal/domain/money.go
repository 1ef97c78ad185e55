package domain

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// NormalizeCurrency trims and uppercases a currency code. It does not
// validate against ISO 4217; unknown codes pass through so that custom
// currencies configured upstream still bucket correctly.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CurrencyInfo describes a currency code as known to the ISO 4217 table.
type CurrencyInfo struct {
	Code     string
	Symbol   string
	Fraction int
	Known    bool
}

// LookupCurrency resolves display metadata for a currency code. For codes
// outside the ISO table it returns the code itself as the symbol with two
// fraction digits.
func LookupCurrency(code string) CurrencyInfo {
	code = NormalizeCurrency(code)
	if cur := money.GetCurrency(code); cur != nil {
		return CurrencyInfo{Code: code, Symbol: cur.Grapheme, Fraction: cur.Fraction, Known: true}
	}
	return CurrencyInfo{Code: code, Symbol: code, Fraction: 2}
}

// ParseBalance parses an upstream balance string into a decimal.
func ParseBalance(value string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(value))
}
