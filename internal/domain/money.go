package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds an amount to two decimal places
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// FormatPrice renders an amount the way the storefronts display it: "$ 1.234,56"
func FormatPrice(v float64) string {
	fixed := decimal.NewFromFloat(v).Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	sign := ""
	if v < 0 {
		sign = "-"
	}
	return sign + "$ " + b.String() + "," + frac
}
