package billing

import (
	"github.com/shopspring/decimal"
)

const (
	// percentPrecision is the scale of intermediate percentage factors
	percentPrecision int32 = 4
	// currencyPrecision is the scale of every stored amount
	currencyPrecision int32 = 2
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds half-up to currency precision
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(currencyPrecision)
}

// percentFactor converts a percentage into a multiplier, e.g. 12.5 -> 0.125
func percentFactor(percent decimal.Decimal) decimal.Decimal {
	return percent.DivRound(hundred, percentPrecision)
}

func valueOr(d *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if d == nil {
		return fallback
	}
	return *d
}

// ComputeItemTotal returns the total of one line item.
// Missing inputs default to quantity 1, price 0, tax 0, discount 0.
// Negative values are not rejected here.
func ComputeItemTotal(quantity, unitPrice, taxRatePercent, discountPercent *decimal.Decimal) decimal.Decimal {
	q := valueOr(quantity, decimal.NewFromInt(1))
	p := valueOr(unitPrice, decimal.Zero)
	tax := valueOr(taxRatePercent, decimal.Zero)
	discount := valueOr(discountPercent, decimal.Zero)

	gross := q.Mul(p)
	net := gross.Sub(gross.Mul(percentFactor(discount)))
	taxAmount := net.Mul(percentFactor(tax))

	return Round2(net.Add(taxAmount))
}

// Aggregate holds the document level amounts derived from its items
type Aggregate struct {
	Subtotal    decimal.Decimal
	TotalAmount decimal.Decimal
}

// ComputeAggregate sums item totals and applies document level tax and discount.
// The total is not floored at zero.
func ComputeAggregate(itemTotals []decimal.Decimal, taxAmount, discountAmount decimal.Decimal) Aggregate {
	subtotal := decimal.Zero
	for _, t := range itemTotals {
		subtotal = subtotal.Add(t)
	}
	return Aggregate{
		Subtotal:    Round2(subtotal),
		TotalAmount: Round2(subtotal.Add(taxAmount).Sub(discountAmount)),
	}
}
