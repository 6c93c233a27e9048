package nobitex

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/finbase/nobisync/internal/domain"
)

// unitPricePattern matches the Persian "at unit price <number> <unit>"
// phrasing Nobitex embeds in transaction descriptions.
var unitPricePattern = regexp.MustCompile(`به قیمت واحد ([\d,]+) (\S+)`)

// typeMarkers are checked in order; the first marker found in the
// description wins.
var typeMarkers = []struct {
	marker string
	txType domain.TransactionType
}{
	{"خرید", domain.TransactionBuy},
	{"فروش", domain.TransactionSell},
	{"واریز", domain.TransactionDeposit},
	{"برداشت", domain.TransactionWithdrawal},
}

// ClassifyType refines the sign-derived transaction type from the free-text
// description. Best-effort parsing of Nobitex's Persian phrasing only; absent
// any marker the fallback type is kept.
func ClassifyType(description string, fallback domain.TransactionType) domain.TransactionType {
	for _, m := range typeMarkers {
		if strings.Contains(description, m.marker) {
			return m.txType
		}
	}
	return fallback
}

// ExtractUnitPrice pulls an embedded unit price and its unit out of the
// description. Both results are zero when the pattern does not match.
func ExtractUnitPrice(description string) (*float64, string) {
	match := unitPricePattern.FindStringSubmatch(description)
	if match == nil {
		return nil, ""
	}

	raw := strings.ReplaceAll(match[1], ",", "")
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, ""
	}

	return &price, match[2]
}
