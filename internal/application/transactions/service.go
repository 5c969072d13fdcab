package transactions

import (
	"context"
	"errors"
	"time"

	"fortyacres-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrAccountNotFound = errors.New("Investment account not found")
	ErrInvalidType     = errors.New("type must be one of: investment lot_release withdrawal")
)

type Service struct {
	DB *gorm.DB
}

type Filter struct {
	Type  string
	Page  int
	Limit int
}

type FormattedTx struct {
	TxID                uuid.UUID       `json:"txId"`
	Type                string          `json:"type"`
	Amount              decimal.Decimal `json:"amount"`
	CreatedAt           time.Time       `json:"createdAt"`
	PropertyID          *uuid.UUID      `json:"propertyId"`
	PropertyName        *string         `json:"propertyName"`
	RelatedWithdrawalID *uuid.UUID      `json:"relatedWithdrawalId"`
	Metadata            datatypes.JSON  `json:"metadata"`
}

type Page struct {
	Items []FormattedTx
	Total int64
	Page  int
	Limit int
}

func ValidType(t string) bool {
	switch t {
	case domain.TxTypeInvestment, domain.TxTypeLotRelease, domain.TxTypeWithdrawal:
		return true
	}
	return false
}

// ViewTransactions pages through the ledger of the user's account, newest
// first, with property names resolved.
func (s *Service) ViewTransactions(ctx context.Context, userID uuid.UUID, f Filter) (*Page, error) {
	if f.Type != "" && !ValidType(f.Type) {
		return nil, ErrInvalidType
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	db := s.DB.WithContext(ctx)
	var account domain.InvestmentAccount
	if err := db.Where("user_id = ?", userID).Select("account_id").First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	q := db.Model(&domain.Transaction{}).Where("account_id = ?", account.AccountID)
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	var txs []domain.Transaction
	if err := q.Order(`"createdAt" DESC`).Offset((f.Page - 1) * f.Limit).Limit(f.Limit).Find(&txs).Error; err != nil {
		return nil, err
	}

	propIDs := map[uuid.UUID]bool{}
	for _, tx := range txs {
		if tx.PropertyID != nil {
			propIDs[*tx.PropertyID] = true
		}
	}
	propNames := map[uuid.UUID]string{}
	if len(propIDs) > 0 {
		ids := make([]uuid.UUID, 0, len(propIDs))
		for id := range propIDs {
			ids = append(ids, id)
		}
		var props []domain.Property
		if err := db.Where("property_id IN ?", ids).Select("property_id, name").Find(&props).Error; err != nil {
			return nil, err
		}
		for _, p := range props {
			propNames[p.PropertyID] = p.Name
		}
	}

	out := make([]FormattedTx, len(txs))
	for i, tx := range txs {
		ft := FormattedTx{
			TxID:                tx.TxID,
			Type:                tx.Type,
			Amount:              tx.Amount,
			CreatedAt:           tx.CreatedAt,
			PropertyID:          tx.PropertyID,
			RelatedWithdrawalID: tx.RelatedWithdrawalID,
			Metadata:            tx.Metadata,
		}
		if tx.PropertyID != nil {
			if name, ok := propNames[*tx.PropertyID]; ok {
				ft.PropertyName = &name
			}
		}
		out[i] = ft
	}
	return &Page{Items: out, Total: total, Page: f.Page, Limit: f.Limit}, nil
}
