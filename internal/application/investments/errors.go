package investments

import "errors"

var (
	ErrInvalidAmount       = errors.New("Amount must be a positive number")
	ErrSubCentAmount       = errors.New("Amount must not have more than 2 decimal places")
	ErrInvalidShares       = errors.New("Shares must be a positive whole number")
	ErrPropertyNotFound    = errors.New("Property not found")
	ErrPropertyNotFunding  = errors.New("Property is not open for investment")
	ErrExceedsTarget       = errors.New("Investment exceeds the property's remaining funding")
	ErrAccountInactive     = errors.New("Investment account is not active")
	ErrNoTiers             = errors.New("No investment tiers configured")
	ErrPaymentIncomplete   = errors.New("Payment metadata incomplete")
	ErrPaymentAlreadyTaken = errors.New("Payment already recorded")
	ErrPaymentNeedsRefund  = errors.New("Payment held for refund")
)
