package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PaymentStatusSucceeded      = "succeeded"
	PaymentStatusRequiresRefund = "requires_refund"
)

// Payment records a Stripe PaymentIntent that funded an investment. The unique
// PaymentIntent ID makes webhook delivery idempotent.
type Payment struct {
	ID                    uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	StripePaymentIntentID string          `gorm:"column:stripe_payment_intent_id;uniqueIndex;not null" json:"stripePaymentIntentId"`
	StripeEventID         string          `gorm:"column:stripe_event_id;uniqueIndex;not null" json:"stripeEventId"`
	UserID                uuid.UUID       `gorm:"column:user_id;type:uuid;not null" json:"userId"`
	PropertyID            *uuid.UUID      `gorm:"column:property_id;type:uuid" json:"propertyId"`
	Amount                decimal.Decimal `gorm:"column:amount;type:decimal(20,4);not null" json:"amount"`
	AmountPaidCents       int64           `gorm:"column:amount_paid_cents;not null" json:"amountPaidCents"`
	Currency              string          `gorm:"column:currency;not null" json:"currency"`
	Status                string          `gorm:"column:status;not null" json:"status"`
	RawPaymentIntent      datatypes.JSON  `gorm:"column:raw_payment_intent;not null" json:"rawPaymentIntent"`
	CreatedAt             time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt             time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Payment) TableName() string {
	return "Payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
