package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusClosed    AccountStatus = "closed"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusActive, AccountStatusSuspended, AccountStatusClosed:
		return true
	}
	return false
}

// InvestmentAccount is a user's ledger. AvailableBalance + LockedBalance never
// exceeds TotalInvested; the gap is what has already been withdrawn.
type InvestmentAccount struct {
	AccountID              uuid.UUID       `gorm:"column:account_id;type:uuid;primaryKey" json:"id"`
	UserID                 uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex" json:"userId"`
	TierID                 uuid.UUID       `gorm:"column:tier_id;type:uuid;not null" json:"tierId"`
	TotalInvested          decimal.Decimal `gorm:"column:total_invested;type:decimal(20,4);not null;default:0" json:"totalInvested"`
	AvailableBalance       decimal.Decimal `gorm:"column:available_balance;type:decimal(20,4);not null;default:0" json:"availableBalance"`
	LockedBalance          decimal.Decimal `gorm:"column:locked_balance;type:decimal(20,4);not null;default:0" json:"lockedBalance"`
	LastWithdrawalDate     *time.Time      `gorm:"column:last_withdrawal_date" json:"lastWithdrawalDate"`
	NextEligibleWithdrawal *time.Time      `gorm:"column:next_eligible_withdrawal" json:"nextEligibleWithdrawal"`
	AccountStatus          AccountStatus   `gorm:"column:account_status;type:varchar(20);not null;default:active" json:"accountStatus"`
	CreatedAt              time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt              time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (InvestmentAccount) TableName() string {
	return "InvestmentAccounts"
}

func (a *InvestmentAccount) BeforeCreate(tx *gorm.DB) error {
	if a.AccountID == uuid.Nil {
		a.AccountID = uuid.New()
	}
	if a.AccountStatus == "" {
		a.AccountStatus = AccountStatusActive
	}
	return nil
}
