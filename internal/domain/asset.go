package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetSource identifies which Lunch Money endpoint a record came from.
type AssetSource string

const (
	// AssetSourceManual is a balance the user entered by hand (/v1/assets).
	AssetSourceManual AssetSource = "manual"
	// AssetSourceLinked is a balance synced from a bank via Plaid (/v1/plaid_accounts).
	AssetSourceLinked AssetSource = "linked"
)

// RawManualAsset mirrors a manually tracked asset as returned by /v1/assets.
// ID and Balance are pointers so that absent fields can be told apart from
// zero values during normalization.
type RawManualAsset struct {
	ID                  *int64    `json:"id"`
	Name                string    `json:"name"`
	DisplayName         string    `json:"display_name,omitempty"`
	TypeName            string    `json:"type_name"`
	SubtypeName         string    `json:"subtype_name,omitempty"`
	InstitutionName     string    `json:"institution_name,omitempty"`
	Balance             *string   `json:"balance"`
	Currency            string    `json:"currency"`
	BalanceAsOf         time.Time `json:"balance_as_of"`
	ToBase              *float64  `json:"to_base,omitempty"`
	ExcludeFromNetWorth bool      `json:"exclude_from_net_worth"`
}

// RawLinkedAsset mirrors a Plaid-linked account as returned by /v1/plaid_accounts.
type RawLinkedAsset struct {
	ID              *int64    `json:"id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Subtype         string    `json:"subtype,omitempty"`
	Mask            string    `json:"mask,omitempty"`
	InstitutionName string    `json:"institution_name,omitempty"`
	Status          string    `json:"status,omitempty"`
	Balance         *string   `json:"balance"`
	Currency        string    `json:"currency"`
	BalanceAsOf     time.Time `json:"balance_as_of"`
}

// RawAssetRecord is the tagged union handed to the normalizer. Exactly one of
// Manual or Linked is set, indicated by Source.
type RawAssetRecord struct {
	Source AssetSource
	Manual *RawManualAsset
	Linked *RawLinkedAsset
}

// ManualRecord wraps a manual asset into a RawAssetRecord.
func ManualRecord(a RawManualAsset) RawAssetRecord {
	return RawAssetRecord{Source: AssetSourceManual, Manual: &a}
}

// LinkedRecord wraps a linked account into a RawAssetRecord.
func LinkedRecord(a RawLinkedAsset) RawAssetRecord {
	return RawAssetRecord{Source: AssetSourceLinked, Linked: &a}
}

// NormalizedAsset is the canonical in-memory asset shape. Both raw variants
// collapse into this; everything downstream (aggregation, projection) only
// sees NormalizedAsset.
type NormalizedAsset struct {
	ID           int64       `json:"id"`
	Source       AssetSource `json:"source"`
	DisplayLabel string      `json:"display_label"`
	PrimaryType  string      `json:"primary_type"`
	Subtype      string      `json:"subtype,omitempty"`
	Institution  string      `json:"institution,omitempty"`

	// Balance is always denominated in Currency.
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`

	BalanceAsOf time.Time `json:"balance_as_of"`

	// BaseCurrencyValue is the upstream-supplied conversion of Balance into
	// the user's base currency. Only manual assets carry it; nil for linked
	// accounts, whose contribution is decided by currency match instead.
	BaseCurrencyValue *decimal.Decimal `json:"base_currency_value,omitempty"`

	// OriginalName is the upstream name when DisplayLabel came from a
	// display_name override. Empty otherwise.
	OriginalName string `json:"original_name,omitempty"`

	IncludedInNetWorth bool `json:"included_in_net_worth"`
}
