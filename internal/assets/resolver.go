// Package assets maps exchange-native currency codes onto canonical asset
// identities and holds the static pricing rule table.
package assets

import (
	"fmt"
	"strings"

	"github.com/finbase/nobisync/internal/domain"
)

// Resolve maps an exchange currency code onto one of the known assets.
// Matching is case-insensitive against the canonical name and every alias.
// When aliases overlap across assets the first candidate in iteration order
// wins; Validate surfaces such overlaps at load time.
func Resolve(currency string, candidates []domain.KnownAsset) (domain.KnownAsset, bool) {
	for _, candidate := range candidates {
		if strings.EqualFold(currency, candidate.Name) {
			return candidate, true
		}
		for _, alias := range candidate.Aliases {
			if strings.EqualFold(currency, alias) {
				return candidate, true
			}
		}
	}

	return domain.KnownAsset{}, false
}

// Validate returns one warning per alias (or name) claimed by more than one
// asset. Overlaps make resolution order-dependent, so callers should log
// them when the asset list is loaded.
func Validate(known []domain.KnownAsset) []string {
	seen := make(map[string]string)
	var warnings []string

	claim := func(code, owner string) {
		key := strings.ToLower(code)
		if prev, ok := seen[key]; ok && prev != owner {
			warnings = append(warnings,
				fmt.Sprintf("alias %q is claimed by both %q and %q, resolution is order-dependent", code, prev, owner))
			return
		}
		seen[key] = owner
	}

	for _, asset := range known {
		claim(asset.Name, asset.Name)
		for _, alias := range asset.Aliases {
			claim(alias, asset.Name)
		}
	}

	return warnings
}
