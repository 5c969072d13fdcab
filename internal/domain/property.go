package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PropertyStatusFunding = "funding"
	PropertyStatusFunded  = "funded"
	PropertyStatusClosed  = "closed"
)

// Property is a listed real-estate asset whose shares investors buy.
type Property struct {
	PropertyID   uuid.UUID       `gorm:"column:property_id;type:uuid;primaryKey" json:"id"`
	Name         string          `gorm:"column:name;not null" json:"name"`
	Location     string          `gorm:"column:location;not null" json:"location"`
	TargetAmount decimal.Decimal `gorm:"column:target_amount;type:decimal(20,4);not null" json:"targetAmount"`
	RaisedAmount decimal.Decimal `gorm:"column:raised_amount;type:decimal(20,4);not null;default:0" json:"raisedAmount"`
	SharePrice   decimal.Decimal `gorm:"column:share_price;type:decimal(20,4);not null" json:"sharePrice"`
	Status       string          `gorm:"column:status;type:varchar(20);not null;default:funding" json:"status"`
	CreatedAt    time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt    time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Property) TableName() string {
	return "Properties"
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.PropertyID == uuid.Nil {
		p.PropertyID = uuid.New()
	}
	if p.Status == "" {
		p.Status = PropertyStatusFunding
	}
	return nil
}
