package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TxTypeInvestment = "investment"
	TxTypeLotRelease = "lot_release"
	TxTypeWithdrawal = "withdrawal"
)

// Transaction is the append-only account ledger.
type Transaction struct {
	TxID                uuid.UUID       `gorm:"column:tx_id;type:uuid;primaryKey" json:"txId"`
	Type                string          `gorm:"column:type;type:varchar(20);not null" json:"type"`
	AccountID           uuid.UUID       `gorm:"column:account_id;type:uuid;not null;index" json:"accountId"`
	PropertyID          *uuid.UUID      `gorm:"column:property_id;type:uuid" json:"propertyId"`
	Amount              decimal.Decimal `gorm:"column:amount;type:decimal(20,4);not null" json:"amount"`
	RelatedWithdrawalID *uuid.UUID      `gorm:"column:related_withdrawal_id;type:uuid" json:"relatedWithdrawalId"`
	Metadata            datatypes.JSON  `gorm:"column:metadata" json:"metadata"`
	CreatedAt           time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt           time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Transaction) TableName() string {
	return "Transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.TxID == uuid.Nil {
		t.TxID = uuid.New()
	}
	return nil
}
