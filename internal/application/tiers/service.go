package tiers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fortyacres-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const CacheKey = "tiers:all"

var ErrTierNotFound = errors.New("Investment tier not found")

// Service reads the tier table. Rdb is optional; without it every call hits
// the database.
type Service struct {
	DB  *gorm.DB
	Rdb *redis.Client
	TTL time.Duration
}

// DefaultTiers is the reference data written by Seed.
func DefaultTiers() []domain.InvestmentTier {
	return []domain.InvestmentTier{
		{
			Name:                    "Starter",
			MinInvestment:           decimal.NewFromInt(1000),
			MaxInvestment:           decimal.NewNullDecimal(decimal.RequireFromString("9999.99")),
			LockupPeriodMonths:      6,
			WithdrawalFrequencyDays: 90,
			EarlyWithdrawalPenalty:  decimal.NewFromInt(5),
			Benefits:                datatypes.JSONSlice[string]{"Quarterly statements", "Community events access"},
		},
		{
			Name:                    "Builder",
			MinInvestment:           decimal.NewFromInt(10000),
			MaxInvestment:           decimal.NewNullDecimal(decimal.RequireFromString("49999.99")),
			LockupPeriodMonths:      12,
			WithdrawalFrequencyDays: 60,
			EarlyWithdrawalPenalty:  decimal.RequireFromString("3.5"),
			Benefits:                datatypes.JSONSlice[string]{"Monthly statements", "Early access to new properties", "Community events access"},
		},
		{
			Name:                    "Partner",
			MinInvestment:           decimal.NewFromInt(50000),
			LockupPeriodMonths:      24,
			WithdrawalFrequencyDays: 30,
			EarlyWithdrawalPenalty:  decimal.NewFromInt(2),
			Benefits:                datatypes.JSONSlice[string]{"Dedicated advisor", "Property site visits", "Early access to new properties", "Annual partner summit"},
		},
	}
}

// Seed inserts DefaultTiers when the table is empty. Existing rows are left
// alone.
func (s *Service) Seed(ctx context.Context) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&domain.InvestmentTier{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	seed := DefaultTiers()
	if err := s.DB.WithContext(ctx).Create(&seed).Error; err != nil {
		return err
	}
	s.invalidate(ctx)
	log.Info().Int("count", len(seed)).Msg("investment tiers seeded")
	return nil
}

// List returns all tiers ordered by minimum investment.
func (s *Service) List(ctx context.Context) ([]domain.InvestmentTier, error) {
	if cached, ok := s.fromCache(ctx); ok {
		return cached, nil
	}

	tiers := []domain.InvestmentTier{}
	if err := s.DB.WithContext(ctx).Order("min_investment ASC").Find(&tiers).Error; err != nil {
		return nil, err
	}
	s.store(ctx, tiers)
	return tiers, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.InvestmentTier, error) {
	var tier domain.InvestmentTier
	if err := s.DB.WithContext(ctx).Where("tier_id = ?", id).First(&tier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTierNotFound
		}
		return nil, err
	}
	return &tier, nil
}

// ForAmount picks the tier for a cumulative invested amount. Amounts below the
// smallest minimum fall back to the lowest tier.
func (s *Service) ForAmount(ctx context.Context, amount decimal.Decimal) (*domain.InvestmentTier, error) {
	tiers, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(tiers) == 0 {
		return nil, ErrTierNotFound
	}
	if t, ok := TierForAmount(tiers, amount); ok {
		return &t, nil
	}
	lowest := Lowest(tiers)
	return &lowest, nil
}

func (s *Service) fromCache(ctx context.Context) ([]domain.InvestmentTier, bool) {
	if s.Rdb == nil {
		return nil, false
	}
	raw, err := s.Rdb.Get(ctx, CacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("tier cache read failed")
		}
		return nil, false
	}
	var tiers []domain.InvestmentTier
	if err := json.Unmarshal(raw, &tiers); err != nil {
		log.Warn().Err(err).Msg("tier cache entry unreadable")
		return nil, false
	}
	return tiers, true
}

func (s *Service) store(ctx context.Context, tiers []domain.InvestmentTier) {
	if s.Rdb == nil || len(tiers) == 0 {
		return
	}
	raw, err := json.Marshal(tiers)
	if err != nil {
		return
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if err := s.Rdb.Set(ctx, CacheKey, raw, ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("tier cache write failed")
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.Rdb == nil {
		return
	}
	s.Rdb.Del(ctx, CacheKey)
}
