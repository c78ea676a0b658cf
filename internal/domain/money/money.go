// Package money parses and formats currency amounts.
//
// Amounts arrive from bank descriptions, operator forms and statement files
// in many shapes ("$1,200.00", "1200", "USD 950.00", "$1200/mo"). Parse
// normalises all of them into a decimal.Decimal and rejects anything that is
// not a number once currency noise is stripped.
package money

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when an amount carries no currency marker.
const DefaultCurrency = "USD"

// ErrInvalidAmount is returned when a string is not a numeric amount.
var ErrInvalidAmount = errors.New("invalid amount")

var (
	periodSuffix = regexp.MustCompile(`(?i)\s*/\s*(mo|month)\s*$`)
	currencyCode = regexp.MustCompile(`^([A-Za-z]{3})\s+|\s+([A-Za-z]{3})$`)
	numeric      = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

	symbolStripper = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "")
)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// Parse converts a currency-formatted string into a decimal amount.
func Parse(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = periodSuffix.ReplaceAllString(clean, "")
	clean = currencyCode.ReplaceAllString(clean, "")
	clean = symbolStripper.Replace(clean)

	if clean == "" || !numeric.MatchString(clean) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// ParsePositive is Parse with the extra requirement that the amount is > 0.
func ParsePositive(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q must be greater than zero", ErrInvalidAmount, s)
	}
	return d, nil
}

// CurrencyOf returns the ISO code found in s, or DefaultCurrency.
func CurrencyOf(s string) string {
	trimmed := strings.TrimSpace(s)
	if m := currencyCode.FindStringSubmatch(trimmed); m != nil {
		for _, code := range m[1:] {
			if code != "" {
				return strings.ToUpper(code)
			}
		}
	}
	switch {
	case strings.Contains(trimmed, "€"):
		return "EUR"
	case strings.Contains(trimmed, "£"):
		return "GBP"
	}
	return DefaultCurrency
}

// Format renders an amount the way bank feeds and the dashboard show it,
// e.g. Format(1200, "USD") == "$1,200.00".
func Format(d decimal.Decimal, currency string) string {
	fixed := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}

	prefix, ok := symbols[strings.ToUpper(currency)]
	if !ok {
		prefix = strings.ToUpper(currency) + " "
	}

	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + prefix + grouped.String() + "." + frac
}
