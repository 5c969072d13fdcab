package investments

import (
	"fortyacres-backend/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FundingProgress is raised/target as a percentage, capped at 100 and rounded
// to two places.
func FundingProgress(p domain.Property) decimal.Decimal {
	if !p.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	pct := p.RaisedAmount.Div(p.TargetAmount).Mul(hundred)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	return pct.Round(2)
}

// Remaining is how much a property can still raise.
func Remaining(p domain.Property) decimal.Decimal {
	left := p.TargetAmount.Sub(p.RaisedAmount)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}
