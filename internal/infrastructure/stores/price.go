package stores

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
)

var (
	// "44,20", "1.234,56": accepted as a price even without a currency marker
	commaDecimalPattern = regexp2.MustCompile(`^\d{1,3}(?:\.\d{3})+,\d{1,2}$|^\d+,\d{1,2}$`, regexp2.None)

	// a currency marker and the complete amount that follows it
	currencyAmountPattern = regexp2.MustCompile(`(?:\$|\bARS)\s*(?<amount>\d+(?:[.,]\d+)*)(?![\d])`, regexp2.IgnoreCase)

	dotThousandsPattern = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
)

// ParsePrice converts a display price into a number.
// Text without a currency marker is only accepted when it is a strict
// comma-decimal amount, so quantities and ids are never read as prices.
func ParsePrice(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "\u00a0", " "))
	if s == "" {
		return 0, false
	}

	if tok, ok := currencyAmount(s); ok {
		return parseAmount(tok)
	}
	if ok, _ := commaDecimalPattern.MatchString(s); ok {
		return parseAmount(s)
	}
	return 0, false
}

// IsPriceText reports whether s holds something ParsePrice accepts
func IsPriceText(s string) bool {
	_, ok := ParsePrice(s)
	return ok
}

// hasCurrencyMarker reports whether s holds a currency marker followed by an amount
func hasCurrencyMarker(s string) bool {
	_, ok := currencyAmount(strings.ReplaceAll(s, "\u00a0", " "))
	return ok
}

// currencyAmount returns the amount following the first currency marker in s
func currencyAmount(s string) (string, bool) {
	m, err := currencyAmountPattern.FindStringMatch(s)
	if err != nil || m == nil {
		return "", false
	}
	g := m.GroupByName("amount")
	if g == nil || g.String() == "" {
		return "", false
	}
	return g.String(), true
}

// parseAmount normalizes thousands and decimal separators.
// The last separator decides: "1.234,56" and "1,234.56" are both 1234.56;
// a dot followed by exactly three-digit groups is a thousands separator.
func parseAmount(tok string) (float64, bool) {
	lastComma := strings.LastIndex(tok, ",")
	lastDot := strings.LastIndex(tok, ".")

	switch {
	case lastComma > lastDot:
		intPart := strings.NewReplacer(".", "", ",", "").Replace(tok[:lastComma])
		tok = intPart + "." + tok[lastComma+1:]
	case lastDot > lastComma && lastComma >= 0:
		tok = strings.ReplaceAll(tok, ",", "")
	case lastDot >= 0 && dotThousandsPattern.MatchString(tok):
		tok = strings.ReplaceAll(tok, ".", "")
	}

	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
