package investments

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fortyacres-backend/internal/application/tiers"
	"fortyacres-backend/internal/domain"
	"fortyacres-backend/internal/pkg/clock"
	"fortyacres-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	DB    *gorm.DB
	Clock clock.Clock
}

type RecordInput struct {
	UserID     uuid.UUID
	PropertyID *uuid.UUID
	Amount     decimal.Decimal
	Shares     int64
}

type PropertyView struct {
	domain.Property
	FundingProgress decimal.Decimal `json:"fundingProgress"`
	Remaining       decimal.Decimal `json:"remaining"`
}

func viewOf(p domain.Property) PropertyView {
	return PropertyView{Property: p, FundingProgress: FundingProgress(p), Remaining: Remaining(p)}
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return clock.System{}.Now()
	}
	return s.Clock.Now()
}

// RecordInvestment credits an investment to the user's account, opening the
// account on first use.
func (s *Service) RecordInvestment(ctx context.Context, in RecordInput) (*domain.InvestmentLot, error) {
	var lot *domain.InvestmentLot
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		lot, err = s.RecordInTx(tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return lot, nil
}

// RecordInTx does the work of RecordInvestment inside the caller's transaction.
// The new amount is locked until the tier's lock-up period has passed.
func (s *Service) RecordInTx(tx *gorm.DB, in RecordInput) (*domain.InvestmentLot, error) {
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !validation.IsWholeCents(in.Amount) {
		return nil, ErrSubCentAmount
	}
	if in.Shares < 0 {
		return nil, ErrInvalidShares
	}
	now := s.now()

	if in.PropertyID != nil {
		var property domain.Property
		if err := tx.Where("property_id = ?", *in.PropertyID).First(&property).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrPropertyNotFound
			}
			return nil, err
		}
		if property.Status != domain.PropertyStatusFunding {
			return nil, ErrPropertyNotFunding
		}
		if in.Amount.GreaterThan(Remaining(property)) {
			return nil, ErrExceedsTarget
		}
		if in.Shares == 0 && property.SharePrice.IsPositive() {
			in.Shares = in.Amount.Div(property.SharePrice).IntPart()
		}

		raised := property.RaisedAmount.Add(in.Amount)
		updates := map[string]interface{}{"raised_amount": raised}
		if !raised.LessThan(property.TargetAmount) {
			updates["status"] = domain.PropertyStatusFunded
		}
		res := tx.Model(&domain.Property{}).
			Where("property_id = ? AND raised_amount = ?", property.PropertyID, property.RaisedAmount).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrExceedsTarget
		}
	}

	var allTiers []domain.InvestmentTier
	if err := tx.Find(&allTiers).Error; err != nil {
		return nil, err
	}
	if len(allTiers) == 0 {
		return nil, ErrNoTiers
	}

	var account domain.InvestmentAccount
	err := tx.Where("user_id = ?", in.UserID).First(&account).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		account = domain.InvestmentAccount{
			UserID:           in.UserID,
			TierID:           tiers.Lowest(allTiers).TierID,
			TotalInvested:    decimal.Zero,
			AvailableBalance: decimal.Zero,
			LockedBalance:    decimal.Zero,
		}
		if err := tx.Create(&account).Error; err != nil {
			return nil, err
		}
		log.Info().Str("account_id", account.AccountID.String()).Str("user_id", in.UserID.String()).Msg("investment account opened")
	case err != nil:
		return nil, err
	case account.AccountStatus != domain.AccountStatusActive:
		return nil, ErrAccountInactive
	}

	total := account.TotalInvested.Add(in.Amount)
	tier, ok := tiers.TierForAmount(allTiers, total)
	if !ok {
		tier = tiers.Lowest(allTiers)
	}

	lot := domain.InvestmentLot{
		AccountID:   account.AccountID,
		PropertyID:  in.PropertyID,
		Amount:      in.Amount,
		Shares:      in.Shares,
		InvestedAt:  now,
		LockedUntil: now.AddDate(0, tier.LockupPeriodMonths, 0),
	}
	if err := tx.Create(&lot).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"total_invested": gorm.Expr("total_invested + ?", in.Amount),
		"locked_balance": gorm.Expr("locked_balance + ?", in.Amount),
		"tier_id":        tier.TierID,
	}
	if account.NextEligibleWithdrawal == nil {
		updates["next_eligible_withdrawal"] = lot.LockedUntil
	}
	if err := tx.Model(&domain.InvestmentAccount{}).Where("account_id = ?", account.AccountID).Updates(updates).Error; err != nil {
		return nil, err
	}

	meta, _ := json.Marshal(map[string]interface{}{
		"lot_id":       lot.LotID,
		"shares":       lot.Shares,
		"locked_until": lot.LockedUntil,
		"tier":         tier.Name,
	})
	if err := tx.Create(&domain.Transaction{
		Type:       domain.TxTypeInvestment,
		AccountID:  account.AccountID,
		PropertyID: in.PropertyID,
		Amount:     in.Amount,
		Metadata:   datatypes.JSON(meta),
	}).Error; err != nil {
		return nil, err
	}

	log.Info().Str("account_id", account.AccountID.String()).Str("lot_id", lot.LotID.String()).
		Str("amount", in.Amount.String()).Str("tier", tier.Name).Msg("investment recorded")
	return &lot, nil
}

// ReleaseMaturedLots moves every lot whose lock-up has ended from locked to
// available. Each lot is released in its own transaction; a lot is never
// released twice.
func (s *Service) ReleaseMaturedLots(ctx context.Context) (int, error) {
	now := s.now()
	var due []domain.InvestmentLot
	if err := s.DB.WithContext(ctx).
		Where("released = ? AND locked_until <= ?", false, now).
		Order("locked_until ASC").
		Find(&due).Error; err != nil {
		return 0, err
	}

	released := 0
	for _, lot := range due {
		moved := false
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&domain.InvestmentLot{}).
				Where("lot_id = ? AND released = ?", lot.LotID, false).
				Updates(map[string]interface{}{"released": true, "released_at": now})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil
			}
			res = tx.Model(&domain.InvestmentAccount{}).
				Where("account_id = ? AND locked_balance >= ?", lot.AccountID, lot.Amount).
				Updates(map[string]interface{}{
					"locked_balance":    gorm.Expr("locked_balance - ?", lot.Amount),
					"available_balance": gorm.Expr("available_balance + ?", lot.Amount),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errors.New("locked balance smaller than lot amount")
			}
			moved = true
			meta, _ := json.Marshal(map[string]interface{}{"lot_id": lot.LotID})
			return tx.Create(&domain.Transaction{
				Type:       domain.TxTypeLotRelease,
				AccountID:  lot.AccountID,
				PropertyID: lot.PropertyID,
				Amount:     lot.Amount,
				Metadata:   datatypes.JSON(meta),
			}).Error
		})
		if err != nil {
			log.Error().Err(err).Str("lot_id", lot.LotID.String()).Msg("lot release failed")
			return released, err
		}
		if moved {
			released++
		}
	}
	if released > 0 {
		log.Info().Int("released", released).Msg("matured lots released")
	}
	return released, nil
}

func (s *Service) CreateProperty(ctx context.Context, p domain.Property) (*PropertyView, error) {
	if !p.TargetAmount.IsPositive() || !p.SharePrice.IsPositive() {
		return nil, ErrInvalidAmount
	}
	p.RaisedAmount = decimal.Zero
	p.Status = domain.PropertyStatusFunding
	if err := s.DB.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	v := viewOf(p)
	return &v, nil
}

// ListProperties returns properties, optionally filtered by status, newest
// first.
func (s *Service) ListProperties(ctx context.Context, status string) ([]PropertyView, error) {
	q := s.DB.WithContext(ctx).Order(`"createdAt" DESC`)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var props []domain.Property
	if err := q.Find(&props).Error; err != nil {
		return nil, err
	}
	out := make([]PropertyView, 0, len(props))
	for _, p := range props {
		out = append(out, viewOf(p))
	}
	return out, nil
}

func (s *Service) GetProperty(ctx context.Context, id uuid.UUID) (*PropertyView, error) {
	var p domain.Property
	if err := s.DB.WithContext(ctx).Where("property_id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}
	v := viewOf(p)
	return &v, nil
}

// QuoteShares prices a share purchase against a property that is still
// raising.
func (s *Service) QuoteShares(ctx context.Context, propertyID uuid.UUID, shares int64) (*PropertyView, decimal.Decimal, error) {
	if shares <= 0 {
		return nil, decimal.Zero, ErrInvalidShares
	}
	p, err := s.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if p.Status != domain.PropertyStatusFunding {
		return nil, decimal.Zero, ErrPropertyNotFunding
	}
	amount := p.SharePrice.Mul(decimal.NewFromInt(shares))
	if amount.GreaterThan(p.Remaining) {
		return nil, decimal.Zero, ErrExceedsTarget
	}
	return p, amount, nil
}
