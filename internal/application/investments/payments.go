package investments

import (
	"context"
	"errors"
	"fmt"

	"fortyacres-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"gorm.io/gorm"
)

// PaymentIntentCreator abstracts Stripe PaymentIntent creation for testability.
type PaymentIntentCreator interface {
	Create(amountCents int64, currency string, metadata map[string]string) (*PaymentIntentResult, error)
}

type PaymentIntentResult struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
}

// StripeCreator uses the Stripe Go SDK to create PaymentIntents.
type StripeCreator struct {
	SecretKey string
}

func (r *StripeCreator) Create(amountCents int64, currency string, metadata map[string]string) (*PaymentIntentResult, error) {
	if r.SecretKey == "" {
		return nil, fiber.NewError(501, "Stripe integration pending")
	}
	stripe.Key = r.SecretKey
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		Metadata: metadata,
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &PaymentIntentResult{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// RecordPayment stores a settled PaymentIntent and records the investment it
// paid for in one transaction. A PaymentIntent that was already stored yields
// ErrPaymentAlreadyTaken and changes nothing. When the investment itself is
// refused the payment is still stored as requires_refund and the returned
// error wraps both ErrPaymentNeedsRefund and the refusal.
func (s *Service) RecordPayment(ctx context.Context, payment domain.Payment, in RecordInput) (*domain.InvestmentLot, error) {
	var lot *domain.InvestmentLot
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Payment
		err := tx.Where("stripe_payment_intent_id = ?", payment.StripePaymentIntentID).First(&existing).Error
		if err == nil {
			return ErrPaymentAlreadyTaken
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		lot, err = s.RecordInTx(tx, in)
		return err
	})
	switch {
	case err == nil:
		return lot, nil
	case errors.Is(err, ErrPaymentAlreadyTaken):
	case refusesInvestment(err):
		return nil, s.holdForRefund(ctx, payment, err)
	default:
		log.Error().Err(err).Str("payment_intent", payment.StripePaymentIntentID).Msg("payment could not be recorded")
	}
	return nil, err
}

func refusesInvestment(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrSubCentAmount, ErrInvalidShares, ErrPropertyNotFound,
		ErrPropertyNotFunding, ErrExceedsTarget, ErrAccountInactive,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// holdForRefund stores a settled payment whose investment was refused so the
// money can be returned. Later deliveries of the same PaymentIntent then see
// ErrPaymentAlreadyTaken.
func (s *Service) holdForRefund(ctx context.Context, payment domain.Payment, cause error) error {
	payment.Status = domain.PaymentStatusRequiresRefund
	if err := s.DB.WithContext(ctx).Create(&payment).Error; err != nil {
		log.Error().Err(err).Str("payment_intent", payment.StripePaymentIntentID).Msg("refund hold could not be stored")
		return err
	}
	log.Warn().Err(cause).Str("payment_intent", payment.StripePaymentIntentID).Str("payment_id", payment.ID.String()).
		Msg("payment held for refund")
	return fmt.Errorf("%w: %w", ErrPaymentNeedsRefund, cause)
}
