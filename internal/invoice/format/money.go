package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money renders an amount with two decimals, space grouped thousands and
// the currency suffix, e.g. "42 480.00 FC".
func Money(amount decimal.Decimal, currency string) string {
	fixed := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	out := sign + b.String() + "." + frac
	if currency != "" {
		out += " " + currency
	}
	return out
}
