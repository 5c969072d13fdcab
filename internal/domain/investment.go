package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvestmentLot is one recorded investment. Its amount sits in the account's
// LockedBalance until LockedUntil, then moves to AvailableBalance.
type InvestmentLot struct {
	LotID       uuid.UUID       `gorm:"column:lot_id;type:uuid;primaryKey" json:"id"`
	AccountID   uuid.UUID       `gorm:"column:account_id;type:uuid;not null;index" json:"accountId"`
	PropertyID  *uuid.UUID      `gorm:"column:property_id;type:uuid" json:"propertyId"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(20,4);not null" json:"amount"`
	Shares      int64           `gorm:"column:shares;not null;default:0" json:"shares"`
	InvestedAt  time.Time       `gorm:"column:invested_at;not null" json:"investedAt"`
	LockedUntil time.Time       `gorm:"column:locked_until;not null;index" json:"lockedUntil"`
	Released    bool            `gorm:"column:released;not null;default:false" json:"released"`
	ReleasedAt  *time.Time      `gorm:"column:released_at" json:"releasedAt"`
	CreatedAt   time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (InvestmentLot) TableName() string {
	return "InvestmentLots"
}

func (l *InvestmentLot) BeforeCreate(tx *gorm.DB) error {
	if l.LotID == uuid.Nil {
		l.LotID = uuid.New()
	}
	return nil
}
