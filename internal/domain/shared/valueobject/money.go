package valueobject

import (
	"errors"

	"github.com/shopspring/decimal"
)

// CurrencyPrecision is the number of decimal places stored for amounts
const CurrencyPrecision int32 = 2

// ErrCurrencyMismatch is returned when combining different currencies
var ErrCurrencyMismatch = errors.New("currency mismatch")

// Money is an immutable amount in a currency
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money
func NewMoney(amount decimal.Decimal, currency Currency) Money {
	return Money{amount: amount, currency: currency}
}

// Zero returns zero in the given currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// Add adds two amounts of the same currency
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract subtracts an amount of the same currency
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Rounded returns the amount rounded half-up to currency precision
func (m Money) Rounded() Money {
	return Money{amount: m.amount.Round(CurrencyPrecision), currency: m.currency}
}

// String formats as "123.45 USD"
func (m Money) String() string {
	return m.amount.StringFixed(CurrencyPrecision) + " " + string(m.currency)
}
