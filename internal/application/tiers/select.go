package tiers

import (
	"fortyacres-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// TierForAmount returns the tier with the highest minimum that amount reaches.
// MaxInvestment is display-only here, so an amount between two bands keeps
// the lower band instead of falling through to the lowest tier.
func TierForAmount(tiers []domain.InvestmentTier, amount decimal.Decimal) (domain.InvestmentTier, bool) {
	var best domain.InvestmentTier
	found := false
	for _, t := range tiers {
		if amount.LessThan(t.MinInvestment) {
			continue
		}
		if !found || t.MinInvestment.GreaterThan(best.MinInvestment) {
			best = t
			found = true
		}
	}
	return best, found
}

// Lowest is the tier with the smallest minimum. tiers must not be empty.
func Lowest(tiers []domain.InvestmentTier) domain.InvestmentTier {
	low := tiers[0]
	for _, t := range tiers[1:] {
		if t.MinInvestment.LessThan(low.MinInvestment) {
			low = t
		}
	}
	return low
}
