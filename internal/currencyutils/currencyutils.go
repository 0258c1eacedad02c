// Package currencyutils parses and formats the locale-dependent amounts found
// in bank exports.
package currencyutils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrEmptyAmount is returned when a cell carries no amount at all.
var ErrEmptyAmount = errors.New("empty amount")

var symbols = regexp.MustCompile(`(?i)[€$£\s\x{00a0}']|EUR`)

// StandardizeAmount converts "1.234,56 €", "-12,5", "1,234.56" or "12.50"
// into a string decimal.NewFromString accepts. Whichever of ',' and '.'
// appears last is the decimal separator, unless it repeats, in which case
// it groups thousands.
func StandardizeAmount(amountStr string) string {
	s := symbols.ReplaceAllString(amountStr, "")
	s = strings.ReplaceAll(s, "−", "-")

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma < 0 && lastDot < 0:
		return s
	case lastComma > lastDot:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	default:
		if strings.Count(s, ".") > 1 {
			return strings.ReplaceAll(s, ".", "")
		}
		return strings.ReplaceAll(s, ",", "")
	}
}

// ParseAmount parses a locale-formatted amount.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(amountStr)
	if trimmed == "" || strings.EqualFold(trimmed, "nan") {
		return decimal.Zero, ErrEmptyAmount
	}
	amount, err := decimal.NewFromString(StandardizeAmount(trimmed))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return amount, nil
}

// ParseOptionalAmount is ParseAmount where an empty cell yields nil.
func ParseOptionalAmount(amountStr string) (*decimal.Decimal, error) {
	amount, err := ParseAmount(amountStr)
	if errors.Is(err, ErrEmptyAmount) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &amount, nil
}

// FormatAmount formats a decimal rounded to cents, e.g. "1234.50". It is the
// precision used for identity and transfer grouping.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
