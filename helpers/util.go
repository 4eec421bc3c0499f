package helpers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var nonAmountChars = regexp.MustCompile(`[^\d.,]`)

// ParseAmount extracts a number from display text such as "QAR 1,234.50".
// Currency symbols and words are dropped and commas are read as thousands
// separators.
func ParseAmount(text string) (decimal.Decimal, error) {
	cleaned := nonAmountChars.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.Trim(cleaned, ".")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("no amount in %q", text)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", text, err)
	}
	return d, nil
}

// InRange reports whether lo <= d <= hi. A zero hi means no upper bound.
func InRange(d decimal.Decimal, lo, hi int64) bool {
	if d.LessThan(decimal.NewFromInt(lo)) {
		return false
	}
	return hi == 0 || !d.GreaterThan(decimal.NewFromInt(hi))
}
