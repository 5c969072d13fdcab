package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	invsvc "fortyacres-backend/internal/application/investments"
	"fortyacres-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"gorm.io/datatypes"
)

type WebhookHandler struct {
	Investments   *invsvc.Service
	WebhookSecret string
}

// HandleWebhook POST /api/v1/stripe/webhook. The raw body is verified against
// Stripe-Signature before anything is parsed. Payments the investment rules
// refuse are stored for refund and answer 200; storage failures answer 500 so
// Stripe redelivers the event.
func (wh *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	rawBody := c.BodyRaw()
	if len(rawBody) == 0 {
		log.Warn().Msg("Stripe webhook received empty body")
		return c.Status(fiber.StatusBadRequest).SendString("Webhook Error: empty body")
	}

	sig := c.Get("Stripe-Signature")
	event, err := webhook.ConstructEventWithOptions(rawBody, sig, wh.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		log.Warn().Err(err).Bool("has_sig", sig != "").Bool("has_secret", wh.WebhookSecret != "").Msg("Stripe webhook signature verification failed")
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("Webhook Error: %s", err.Error()))
	}

	if event.Type == stripe.EventTypePaymentIntentSucceeded {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			log.Warn().Err(err).Str("event_id", event.ID).Msg("Stripe webhook payment intent parse failed")
			return c.Status(fiber.StatusOK).SendString("ok")
		}
		err := wh.paymentSucceeded(c.UserContext(), &pi, event.ID, event.Data.Raw)
		switch {
		case err == nil:
		case errors.Is(err, invsvc.ErrPaymentIncomplete), errors.Is(err, invsvc.ErrPaymentNeedsRefund):
			log.Warn().Err(err).Str("event_id", event.ID).Str("payment_intent", pi.ID).Msg("Stripe payment not invested")
		default:
			log.Error().Err(err).Str("event_id", event.ID).Str("payment_intent", pi.ID).Msg("Stripe payment recording failed")
			return c.Status(fiber.StatusInternalServerError).SendString("Webhook Error: payment not recorded")
		}
	}
	return c.Status(fiber.StatusOK).SendString("ok")
}

func (wh *WebhookHandler) paymentSucceeded(ctx context.Context, pi *stripe.PaymentIntent, eventID string, raw []byte) error {
	userID, err := uuid.Parse(pi.Metadata["user_id"])
	if err != nil {
		return invsvc.ErrPaymentIncomplete
	}
	propertyID, err := uuid.Parse(pi.Metadata["property_id"])
	if err != nil {
		return invsvc.ErrPaymentIncomplete
	}
	amount, err := decimal.NewFromString(pi.Metadata["amount"])
	if err != nil || !amount.IsPositive() {
		return invsvc.ErrPaymentIncomplete
	}
	shares, _ := strconv.ParseInt(pi.Metadata["shares"], 10, 64)

	payment := domain.Payment{
		StripePaymentIntentID: pi.ID,
		StripeEventID:         eventID,
		UserID:                userID,
		PropertyID:            &propertyID,
		Amount:                amount,
		AmountPaidCents:       pi.AmountReceived,
		Currency:              string(pi.Currency),
		Status:                string(pi.Status),
		RawPaymentIntent:      datatypes.JSON(raw),
	}
	_, err = wh.Investments.RecordPayment(ctx, payment, invsvc.RecordInput{
		UserID:     userID,
		PropertyID: &propertyID,
		Amount:     amount,
		Shares:     shares,
	})
	if errors.Is(err, invsvc.ErrPaymentAlreadyTaken) {
		log.Info().Str("payment_intent", pi.ID).Msg("Stripe payment already recorded")
		return nil
	}
	return err
}
