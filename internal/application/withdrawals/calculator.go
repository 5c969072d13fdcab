package withdrawals

import (
	"time"

	"fortyacres-backend/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FeePolicy is the processing fee applied to every withdrawal: Rate of the
// amount, but never less than Minimum.
type FeePolicy struct {
	Rate    decimal.Decimal
	Minimum decimal.Decimal
}

// DefaultFeePolicy is 0.5% with a $10 floor.
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		Rate:    decimal.RequireFromString("0.005"),
		Minimum: decimal.NewFromInt(10),
	}
}

// FeeBreakdown is the result of CalculateFees. It is also what the preview
// endpoint returns.
type FeeBreakdown struct {
	Amount        decimal.Decimal       `json:"requestedAmount"`
	ProcessingFee decimal.Decimal       `json:"processingFee"`
	PenaltyFee    decimal.Decimal       `json:"penaltyFee"`
	NetAmount     decimal.Decimal       `json:"netAmount"`
	Type          domain.WithdrawalType `json:"withdrawalType"`
	Eligible      bool                  `json:"eligible"`
}

// IsWithdrawalEligible reports whether a non-emergency withdrawal is allowed
// at now. The result is only valid for that instant.
func IsWithdrawalEligible(account domain.InvestmentAccount, now time.Time) bool {
	if account.NextEligibleWithdrawal == nil {
		return true
	}
	return !now.Before(*account.NextEligibleWithdrawal)
}

// DaysUntilEligible is the whole number of days, rounded up, until the
// account becomes eligible. Never negative.
func DaysUntilEligible(account domain.InvestmentAccount, now time.Time) int {
	if account.NextEligibleWithdrawal == nil {
		return 0
	}
	diff := account.NextEligibleWithdrawal.Sub(now)
	if diff <= 0 {
		return 0
	}
	day := 24 * time.Hour
	days := int(diff / day)
	if diff%day != 0 {
		days++
	}
	return days
}

// CalculateFees computes the fee breakdown for withdrawing amount. The penalty
// only applies to emergency withdrawals made while the account is not
// eligible. NetAmount is neither rounded nor floored at zero; callers reject
// negative payouts.
func (p FeePolicy) CalculateFees(amount decimal.Decimal, account domain.InvestmentAccount, tier domain.InvestmentTier, wt domain.WithdrawalType, now time.Time) FeeBreakdown {
	fee := amount.Mul(p.Rate)
	if fee.LessThan(p.Minimum) {
		fee = p.Minimum
	}

	eligible := IsWithdrawalEligible(account, now)
	penalty := decimal.Zero
	if wt == domain.WithdrawalTypeEmergency && !eligible {
		penalty = amount.Mul(tier.EarlyWithdrawalPenalty).Div(hundred)
	}

	return FeeBreakdown{
		Amount:        amount,
		ProcessingFee: fee,
		PenaltyFee:    penalty,
		NetAmount:     amount.Sub(fee).Sub(penalty),
		Type:          wt,
		Eligible:      eligible,
	}
}

// CalculateFees uses DefaultFeePolicy.
func CalculateFees(amount decimal.Decimal, account domain.InvestmentAccount, tier domain.InvestmentTier, wt domain.WithdrawalType, now time.Time) FeeBreakdown {
	return DefaultFeePolicy().CalculateFees(amount, account, tier, wt, now)
}
