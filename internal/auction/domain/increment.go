package domain

import "github.com/shopspring/decimal"

// minimum increment rule: 5% of the leading amount or 10.00, whichever is
// greater. Amounts are handled with decimal arithmetic only, float64 rounding
// drift is not acceptable for currency.
var (
	incrementRate  = decimal.NewFromFloat(0.05)
	incrementFloor = decimal.RequireFromString("10.00")
)

// MinIncrement computes the minimum acceptable amount for the next bid on a
// lot. When there is no leading bid yet (base is zero) the lot's floor value
// is the minimum, an opening bid exactly at the floor is accepted.
func MinIncrement(base, floorValue decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return floorValue
	}
	increment := decimal.Max(base.Mul(incrementRate), incrementFloor)
	return base.Add(increment)
}
