package ledger

import (
	"fmt"
	"regexp"
	"strings"
)

var isoCode = regexp.MustCompile(`^[A-Z]{3}$`)

// NormalizeCurrency maps a currency hint to a 3-letter ISO code for display.
// The literal symbols $, € and £ are accepted as shorthand; 3-letter codes
// pass through case-insensitively; anything else falls back to USD. This is
// a formatting concern only — no conversion rate is ever applied.
func NormalizeCurrency(c string) string {
	t := strings.ToUpper(strings.TrimSpace(c))
	switch t {
	case "$":
		return "USD"
	case "€":
		return "EUR"
	case "£":
		return "GBP"
	}
	if isoCode.MatchString(t) {
		return t
	}
	return "USD"
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// FormatCents renders a cents amount for display. The displayed value is
// floored at zero; the underlying computed cents are never clamped, so
// downstream accounting still sees the real number.
func FormatCents(cents int64, currency string) string {
	if cents < 0 {
		cents = 0
	}
	code := NormalizeCurrency(currency)
	if sym, ok := currencySymbols[code]; ok {
		return fmt.Sprintf("%s%d.%02d", sym, cents/100, cents%100)
	}
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, code)
}
