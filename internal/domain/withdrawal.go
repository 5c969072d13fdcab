package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WithdrawalType string

const (
	WithdrawalTypePartial   WithdrawalType = "partial"
	WithdrawalTypeFull      WithdrawalType = "full"
	WithdrawalTypeEmergency WithdrawalType = "emergency"
)

func (t WithdrawalType) Valid() bool {
	switch t {
	case WithdrawalTypePartial, WithdrawalTypeFull, WithdrawalTypeEmergency:
		return true
	}
	return false
}

type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusApproved  WithdrawalStatus = "approved"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
)

// CanTransition reports whether the review workflow allows from -> to:
// pending -> approved -> completed, and pending or approved -> rejected when a
// payout cannot be made. Rejected and completed are terminal.
func (from WithdrawalStatus) CanTransition(to WithdrawalStatus) bool {
	switch from {
	case WithdrawalStatusPending:
		return to == WithdrawalStatusApproved || to == WithdrawalStatusRejected
	case WithdrawalStatusApproved:
		return to == WithdrawalStatusCompleted || to == WithdrawalStatusRejected
	}
	return false
}

// WithdrawalRequest fee fields are computed once at submission and never
// recomputed.
type WithdrawalRequest struct {
	RequestID       uuid.UUID        `gorm:"column:request_id;type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	AccountID       uuid.UUID        `gorm:"column:account_id;type:uuid;not null;index" json:"accountId"`
	PropertyID      *uuid.UUID       `gorm:"column:property_id;type:uuid" json:"propertyId"`
	RequestedAmount decimal.Decimal  `gorm:"column:requested_amount;type:decimal(20,4);not null" json:"requestedAmount"`
	AvailableAmount decimal.Decimal  `gorm:"column:available_amount;type:decimal(20,4);not null" json:"availableAmount"`
	WithdrawalType  WithdrawalType   `gorm:"column:withdrawal_type;type:varchar(20);not null" json:"withdrawalType"`
	Status          WithdrawalStatus `gorm:"column:status;type:varchar(20);not null;default:pending;index" json:"status"`
	ProcessingFee   decimal.Decimal  `gorm:"column:processing_fee;type:decimal(20,4);not null" json:"processingFee"`
	PenaltyAmount   decimal.Decimal  `gorm:"column:penalty_amount;type:decimal(20,4);not null" json:"penaltyAmount"`
	NetAmount       decimal.Decimal  `gorm:"column:net_amount;type:decimal(20,4);not null" json:"netAmount"`
	Reason          string           `gorm:"column:reason" json:"reason"`
	ReviewNote      string           `gorm:"column:review_note" json:"reviewNote"`
	ApprovedBy      *uuid.UUID       `gorm:"column:approved_by;type:uuid" json:"approvedBy"`
	ApprovedAt      *time.Time       `gorm:"column:approved_at" json:"approvedAt"`
	ProcessedAt     *time.Time       `gorm:"column:processed_at" json:"processedAt"`
	CreatedAt       time.Time        `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt       time.Time        `gorm:"column:updatedAt" json:"updatedAt"`
}

func (WithdrawalRequest) TableName() string {
	return "WithdrawalRequests"
}

func (w *WithdrawalRequest) BeforeCreate(tx *gorm.DB) error {
	if w.RequestID == uuid.Nil {
		w.RequestID = uuid.New()
	}
	if w.Status == "" {
		w.Status = WithdrawalStatusPending
	}
	return nil
}
