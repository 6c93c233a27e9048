package assets

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// PriceRule tells the enricher how to price one exchange currency. A root
// asset is priced at exactly 1 and its Symbol is ignored; otherwise Symbol
// names the market whose candles carry the price.
type PriceRule struct {
	BaseAsset  string  `yaml:"base_asset"`
	IsRoot     bool    `yaml:"is_root"`
	IsInverted bool    `yaml:"is_inverted"`
	Multiplier float64 `yaml:"multiplier"`
	Symbol     string  `yaml:"symbol,omitempty"`
	Accuracy   float64 `yaml:"accuracy"`
}

// PriceTable maps exchange currency codes (lower-cased) to pricing rules.
// It is loaded once at startup and never mutated afterwards.
type PriceTable map[string]PriceRule

// DefaultPriceTable returns the built-in Nobitex pricing rules, including the
// Persian currency spellings the transaction history uses.
func DefaultPriceTable() PriceTable {
	return PriceTable{
		"rls": {
			BaseAsset:  "irr",
			IsRoot:     false,
			Multiplier: 1,
			Accuracy:   0.00000001,
		},
		"usdt": {
			BaseAsset:  "usd",
			IsRoot:     true,
			Multiplier: 1,
			Accuracy:   0.01,
		},
		"﷼": {
			BaseAsset:  "irr",
			IsInverted: true,
			Symbol:     "USDTIRT",
			Multiplier: 10,
			Accuracy:   0.00000001,
		},
		"تتر": {
			BaseAsset:  "usd",
			IsRoot:     true,
			Multiplier: 1,
			Accuracy:   0.01,
		},
		"بیت‌کوین": {
			BaseAsset:  "btc",
			Symbol:     "BTCUSD",
			Multiplier: 1,
			Accuracy:   0.00000001,
		},
	}
}

// LoadPriceTable merges rules from an optional YAML file over the built-in
// defaults. An empty path returns the defaults unchanged.
func LoadPriceTable(path string) (PriceTable, error) {
	table := DefaultPriceTable()
	if path == "" {
		return table, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read pricing table")
	}

	extra := make(map[string]PriceRule)
	if err := yaml.Unmarshal(raw, &extra); err != nil {
		return nil, errors.Wrap(err, "parse pricing table yaml")
	}

	for code, rule := range extra {
		table[strings.ToLower(code)] = rule
	}

	return table, nil
}

// Rule looks up the pricing rule for an exchange currency code.
func (t PriceTable) Rule(currency string) (PriceRule, bool) {
	rule, ok := t[strings.ToLower(currency)]
	return rule, ok
}

// Warnings reports rules whose root flag and market symbol conflict: a root
// asset is always priced at 1 and its symbol would never be used.
func (t PriceTable) Warnings() []string {
	var warnings []string
	for code, rule := range t {
		if rule.IsRoot && rule.Symbol != "" {
			warnings = append(warnings, "pricing rule for "+code+" is root but also carries a market symbol, symbol is ignored")
		}
	}
	return warnings
}
