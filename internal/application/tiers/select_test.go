package tiers

import (
	"testing"

	"fortyacres-backend/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTierForAmount_OverlappingRangesPickHighest(t *testing.T) {
	tiers := []domain.InvestmentTier{
		{Name: "Open", MinInvestment: decimal.NewFromInt(0)},
		{Name: "Gold", MinInvestment: decimal.NewFromInt(100), MaxInvestment: decimal.NewNullDecimal(decimal.NewFromInt(200))},
	}
	got, ok := TierForAmount(tiers, decimal.NewFromInt(150))
	assert.True(t, ok)
	assert.Equal(t, "Gold", got.Name)

	got, ok = TierForAmount(tiers, decimal.NewFromInt(250))
	assert.True(t, ok)
	assert.Equal(t, "Gold", got.Name)
}

func TestTierForAmount_GapBetweenBandsKeepsLowerBand(t *testing.T) {
	tiers := DefaultTiers()
	got, ok := TierForAmount(tiers, decimal.RequireFromString("49999.995"))
	assert.True(t, ok)
	assert.Equal(t, "Builder", got.Name)

	got, ok = TierForAmount(tiers, decimal.RequireFromString("9999.999"))
	assert.True(t, ok)
	assert.Equal(t, "Starter", got.Name)
}

func TestTierForAmount_NoMatch(t *testing.T) {
	_, ok := TierForAmount(DefaultTiers(), decimal.NewFromInt(999))
	assert.False(t, ok)
	assert.Equal(t, "Starter", Lowest(DefaultTiers()).Name)
}

func TestTierForAmount_Bounds(t *testing.T) {
	tiers := DefaultTiers()
	got, _ := TierForAmount(tiers, decimal.RequireFromString("9999.99"))
	assert.Equal(t, "Starter", got.Name)
	got, _ = TierForAmount(tiers, decimal.RequireFromString("49999.99"))
	assert.Equal(t, "Builder", got.Name)
}
