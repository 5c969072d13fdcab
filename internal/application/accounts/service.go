package accounts

import (
	"context"
	"errors"

	"fortyacres-backend/internal/application/withdrawals"
	"fortyacres-backend/internal/domain"
	"fortyacres-backend/internal/pkg/clock"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrAccountNotFound = errors.New("Investment account not found")
	ErrInvalidStatus   = errors.New("Invalid account status")
)

type Service struct {
	DB    *gorm.DB
	Clock clock.Clock
}

// Overview is the account summary shown to the investor. Eligible and
// DaysUntilEligible are computed at read time and must not be cached.
type Overview struct {
	Account           domain.InvestmentAccount `json:"account"`
	Tier              domain.InvestmentTier    `json:"tier"`
	Eligible          bool                     `json:"eligible"`
	DaysUntilEligible int                      `json:"daysUntilEligible"`
	OpenLots          int64                    `json:"openLots"`
}

func (s *Service) now() clock.Clock {
	if s.Clock == nil {
		return clock.System{}
	}
	return s.Clock
}

func (s *Service) GetForUser(ctx context.Context, userID uuid.UUID) (*domain.InvestmentAccount, error) {
	var account domain.InvestmentAccount
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (s *Service) Overview(ctx context.Context, userID uuid.UUID) (*Overview, error) {
	account, err := s.GetForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var tier domain.InvestmentTier
	if err := s.DB.WithContext(ctx).Where("tier_id = ?", account.TierID).First(&tier).Error; err != nil {
		return nil, err
	}

	var openLots int64
	if err := s.DB.WithContext(ctx).Model(&domain.InvestmentLot{}).
		Where("account_id = ? AND released = ?", account.AccountID, false).
		Count(&openLots).Error; err != nil {
		return nil, err
	}

	now := s.now().Now()
	return &Overview{
		Account:           *account,
		Tier:              tier,
		Eligible:          withdrawals.IsWithdrawalEligible(*account, now),
		DaysUntilEligible: withdrawals.DaysUntilEligible(*account, now),
		OpenLots:          openLots,
	}, nil
}

// SetStatus suspends, closes or reactivates an account. Accounts are never
// deleted.
func (s *Service) SetStatus(ctx context.Context, accountID uuid.UUID, status domain.AccountStatus) (*domain.InvestmentAccount, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	res := s.DB.WithContext(ctx).Model(&domain.InvestmentAccount{}).
		Where("account_id = ?", accountID).
		Update("account_status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAccountNotFound
	}

	var account domain.InvestmentAccount
	if err := s.DB.WithContext(ctx).Where("account_id = ?", accountID).First(&account).Error; err != nil {
		return nil, err
	}
	log.Info().Str("account_id", accountID.String()).Str("status", string(status)).Msg("account status changed")
	return &account, nil
}
