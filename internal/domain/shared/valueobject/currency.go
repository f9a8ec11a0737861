package valueobject

import (
	"errors"
	"strings"

	"golang.org/x/text/currency"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

// DefaultCurrency is used when a quote or invoice is created without one
const DefaultCurrency = USD

// ErrInvalidCurrency is returned for codes that are not ISO 4217
var ErrInvalidCurrency = errors.New("invalid currency code")

// ParseCurrency normalizes and validates an ISO 4217 code.
// An empty string yields the fallback.
func ParseCurrency(code string, fallback Currency) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return fallback, nil
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", ErrInvalidCurrency
	}
	return Currency(unit.String()), nil
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}
