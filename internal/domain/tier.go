package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InvestmentTier is seeded reference data; nothing mutates it at runtime.
type InvestmentTier struct {
	TierID                  uuid.UUID                   `gorm:"column:tier_id;type:uuid;primaryKey" json:"id"`
	Name                    string                      `gorm:"column:name;not null;uniqueIndex" json:"name"`
	MinInvestment           decimal.Decimal             `gorm:"column:min_investment;type:decimal(20,4);not null" json:"minInvestment"`
	MaxInvestment           decimal.NullDecimal         `gorm:"column:max_investment;type:decimal(20,4)" json:"maxInvestment"`
	LockupPeriodMonths      int                         `gorm:"column:lockup_period_months;not null" json:"lockupPeriodMonths"`
	WithdrawalFrequencyDays int                         `gorm:"column:withdrawal_frequency_days;not null" json:"withdrawalFrequencyDays"`
	EarlyWithdrawalPenalty  decimal.Decimal             `gorm:"column:early_withdrawal_penalty;type:decimal(10,4);not null" json:"earlyWithdrawalPenalty"`
	Benefits                datatypes.JSONSlice[string] `gorm:"column:benefits" json:"benefits"`
	CreatedAt               time.Time                   `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt               time.Time                   `gorm:"column:updatedAt" json:"updatedAt"`
}

func (InvestmentTier) TableName() string {
	return "InvestmentTiers"
}

func (t *InvestmentTier) BeforeCreate(tx *gorm.DB) error {
	if t.TierID == uuid.Nil {
		t.TierID = uuid.New()
	}
	return nil
}
