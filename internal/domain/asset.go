// Package domain defines the normalized value types shared by the sync and
// enrichment services.
package domain

// AssetType classifies a known asset.
type AssetType string

const (
	AssetTypeToken AssetType = "token"
	AssetTypeFiat  AssetType = "fiat"
)

// KnownAsset is the canonical identity of an asset, supplied by the caller.
// Aliases cover exchange-native spellings of the same asset.
type KnownAsset struct {
	Name    string    `json:"name"`
	Type    AssetType `json:"type"`
	Aliases []string  `json:"aliases"`
}

// Balance is one wallet's holdings keyed by canonical-ish exchange currency.
type Balance struct {
	Name     string `json:"name"`
	Quantity Amount `json:"quantity"`
}

// AssetValue is the current market value of one asset against the quote
// currency. Value is nil when the exchange reports no usable price.
type AssetValue struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
}
