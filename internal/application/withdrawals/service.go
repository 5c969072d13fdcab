package withdrawals

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fortyacres-backend/internal/domain"
	"fortyacres-backend/internal/pkg/clock"
	"fortyacres-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notifier is told about workflow events after they commit. Implementations
// must not block for long and must swallow their own failures.
type Notifier interface {
	WithdrawalSubmitted(ctx context.Context, req domain.WithdrawalRequest, user domain.User)
	WithdrawalReviewed(ctx context.Context, req domain.WithdrawalRequest, user domain.User)
	WithdrawalCompleted(ctx context.Context, req domain.WithdrawalRequest, user domain.User)
}

type Service struct {
	DB       *gorm.DB
	Clock    clock.Clock
	Fees     FeePolicy
	Notifier Notifier
}

type SubmitInput struct {
	UserID     uuid.UUID
	Amount     decimal.Decimal
	Type       domain.WithdrawalType
	PropertyID *uuid.UUID
	Reason     string
}

// Quote is a fee preview. Nothing is persisted.
type Quote struct {
	FeeBreakdown
	AvailableBalance  decimal.Decimal `json:"availableBalance"`
	DaysUntilEligible int             `json:"daysUntilEligible"`
}

type HistoryFilter struct {
	Status domain.WithdrawalStatus
	Page   int
	Limit  int
}

type HistoryPage struct {
	Items []domain.WithdrawalRequest `json:"items"`
	Total int64                      `json:"total"`
	Page  int                        `json:"page"`
	Limit int                        `json:"limit"`
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return clock.System{}.Now()
	}
	return s.Clock.Now()
}

func (s *Service) policy() FeePolicy {
	if s.Fees.Rate.IsZero() && s.Fees.Minimum.IsZero() {
		return DefaultFeePolicy()
	}
	return s.Fees
}

func (s *Service) loadAccount(tx *gorm.DB, userID uuid.UUID) (domain.InvestmentAccount, domain.InvestmentTier, error) {
	var account domain.InvestmentAccount
	var tier domain.InvestmentTier
	if err := tx.Where("user_id = ?", userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return account, tier, newError(ErrAccountNotFound)
		}
		return account, tier, err
	}
	if account.AccountStatus != domain.AccountStatusActive {
		return account, tier, newError(ErrAccountInactive)
	}
	if err := tx.Where("tier_id = ?", account.TierID).First(&tier).Error; err != nil {
		return account, tier, err
	}
	return account, tier, nil
}

// evaluate applies the submission preconditions in order: type, amount,
// eligibility, then the fee outcome.
func (s *Service) evaluate(account domain.InvestmentAccount, tier domain.InvestmentTier, amount decimal.Decimal, wt domain.WithdrawalType, now time.Time) (FeeBreakdown, error) {
	if !wt.Valid() {
		return FeeBreakdown{}, newError(ErrInvalidType)
	}
	if !amount.IsPositive() || amount.GreaterThan(account.AvailableBalance) {
		return FeeBreakdown{}, newError(ErrInvalidAmount)
	}
	if !validation.IsWholeCents(amount) {
		return FeeBreakdown{}, &Error{
			Code:    CodeInvalidAmount,
			Message: "Amount must not have more than 2 decimal places",
			err:     ErrInvalidAmount,
		}
	}
	if wt == domain.WithdrawalTypeFull && !amount.Equal(account.AvailableBalance) {
		return FeeBreakdown{}, &Error{
			Code:    CodeInvalidAmount,
			Message: "A full withdrawal must request the entire available balance",
			err:     ErrInvalidAmount,
		}
	}
	if wt != domain.WithdrawalTypeEmergency && !IsWithdrawalEligible(account, now) {
		return FeeBreakdown{}, notEligible(DaysUntilEligible(account, now))
	}

	breakdown := s.policy().CalculateFees(amount, account, tier, wt, now)
	if breakdown.NetAmount.IsNegative() {
		return breakdown, newError(ErrNegativeNetAmount)
	}
	return breakdown, nil
}

// Preview runs the same checks and fee computation as Submit without creating
// a request.
func (s *Service) Preview(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, wt domain.WithdrawalType) (*Quote, error) {
	account, tier, err := s.loadAccount(s.DB.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	breakdown, err := s.evaluate(account, tier, amount, wt, now)
	if err != nil {
		return nil, err
	}
	return &Quote{
		FeeBreakdown:      breakdown,
		AvailableBalance:  account.AvailableBalance,
		DaysUntilEligible: DaysUntilEligible(account, now),
	}, nil
}

// Submit validates and persists a pending withdrawal request. Balances are not
// touched until Complete.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*domain.WithdrawalRequest, error) {
	var req domain.WithdrawalRequest

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, tier, err := s.loadAccount(tx, in.UserID)
		if err != nil {
			return err
		}
		breakdown, err := s.evaluate(account, tier, in.Amount, in.Type, s.now())
		if err != nil {
			return err
		}

		req = domain.WithdrawalRequest{
			UserID:          in.UserID,
			AccountID:       account.AccountID,
			PropertyID:      in.PropertyID,
			RequestedAmount: in.Amount,
			AvailableAmount: account.AvailableBalance,
			WithdrawalType:  in.Type,
			Status:          domain.WithdrawalStatusPending,
			ProcessingFee:   breakdown.ProcessingFee,
			PenaltyAmount:   breakdown.PenaltyFee,
			NetAmount:       breakdown.NetAmount,
			Reason:          in.Reason,
		}
		return tx.Create(&req).Error
	})
	if err != nil {
		log.Info().Err(err).Str("user_id", in.UserID.String()).Str("code", CodeOf(err)).Msg("withdrawal submission rejected")
		return nil, err
	}

	log.Info().Str("withdrawal_id", req.RequestID.String()).Str("account_id", req.AccountID.String()).
		Str("type", string(req.WithdrawalType)).Str("amount", req.RequestedAmount.String()).Msg("withdrawal submitted")
	s.notify(ctx, req, Notifier.WithdrawalSubmitted)
	return &req, nil
}

// Approve moves a pending request to approved. The requester cannot approve
// their own request.
func (s *Service) Approve(ctx context.Context, id, reviewerID uuid.UUID) (*domain.WithdrawalRequest, error) {
	now := s.now()
	db := s.DB.WithContext(ctx)

	var owner domain.WithdrawalRequest
	if err := db.Select("request_id", "user_id").Where("request_id = ?", id).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrRequestNotFound)
		}
		return nil, err
	}
	if owner.UserID == reviewerID {
		log.Warn().Str("withdrawal_id", id.String()).Str("reviewer_id", reviewerID.String()).Msg("self-approval refused")
		return nil, newError(ErrSelfReview)
	}

	req, err := s.transition(db, id, domain.WithdrawalStatusApproved, map[string]interface{}{
		"approved_by": reviewerID,
		"approved_at": now,
	}, domain.WithdrawalStatusPending)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, *req, Notifier.WithdrawalReviewed)
	return req, nil
}

// Reject moves a pending or approved request to rejected. An approved request
// whose payout failed can be closed this way; its original approver is kept.
// Rejected requests are final.
func (s *Service) Reject(ctx context.Context, id, reviewerID uuid.UUID, note string) (*domain.WithdrawalRequest, error) {
	now := s.now()
	req, err := s.transition(s.DB.WithContext(ctx), id, domain.WithdrawalStatusRejected, map[string]interface{}{
		"approved_by": gorm.Expr("COALESCE(approved_by, ?)", reviewerID),
		"approved_at": gorm.Expr("COALESCE(approved_at, ?)", now),
		"review_note": note,
	}, domain.WithdrawalStatusPending, domain.WithdrawalStatusApproved)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, *req, Notifier.WithdrawalReviewed)
	return req, nil
}

// Complete pays out an approved request: the status change, the balance debit,
// the eligibility window reset and the ledger row commit together or not at all.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	var req *domain.WithdrawalRequest
	now := s.now()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = s.transition(tx, id, domain.WithdrawalStatusCompleted, map[string]interface{}{
			"processed_at": now,
		}, domain.WithdrawalStatusApproved)
		if err != nil {
			return err
		}

		var account domain.InvestmentAccount
		if err := tx.Where("account_id = ?", req.AccountID).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrAccountNotFound)
			}
			return err
		}
		var tier domain.InvestmentTier
		if err := tx.Where("tier_id = ?", account.TierID).First(&tier).Error; err != nil {
			return err
		}
		next := now.AddDate(0, 0, tier.WithdrawalFrequencyDays)

		res := tx.Model(&domain.InvestmentAccount{}).
			Where("account_id = ? AND available_balance >= ?", req.AccountID, req.RequestedAmount).
			Updates(map[string]interface{}{
				"available_balance":        gorm.Expr("available_balance - ?", req.RequestedAmount),
				"last_withdrawal_date":     now,
				"next_eligible_withdrawal": next,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return newError(ErrInsufficientBalance)
		}

		meta, _ := json.Marshal(map[string]interface{}{
			"withdrawal_type": req.WithdrawalType,
			"processing_fee":  req.ProcessingFee,
			"penalty_amount":  req.PenaltyAmount,
			"net_amount":      req.NetAmount,
		})
		return tx.Create(&domain.Transaction{
			Type:                domain.TxTypeWithdrawal,
			AccountID:           req.AccountID,
			PropertyID:          req.PropertyID,
			Amount:              req.RequestedAmount,
			RelatedWithdrawalID: &req.RequestID,
			Metadata:            datatypes.JSON(meta),
		}).Error
	})
	if err != nil {
		log.Warn().Err(err).Str("withdrawal_id", id.String()).Msg("withdrawal completion failed")
		return nil, err
	}

	log.Info().Str("withdrawal_id", req.RequestID.String()).Str("account_id", req.AccountID.String()).
		Str("net_amount", req.NetAmount.String()).Msg("withdrawal completed")
	s.notify(ctx, *req, Notifier.WithdrawalCompleted)
	return req, nil
}

// transition performs a conditional status update so that only one of several
// concurrent reviewers can move a request out of any of the from statuses.
func (s *Service) transition(db *gorm.DB, id uuid.UUID, to domain.WithdrawalStatus, fields map[string]interface{}, from ...domain.WithdrawalStatus) (*domain.WithdrawalRequest, error) {
	for _, f := range from {
		if !f.CanTransition(to) {
			return nil, newError(ErrInvalidTransition)
		}
	}
	fields["status"] = to

	res := db.Model(&domain.WithdrawalRequest{}).
		Where("request_id = ? AND status IN ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}

	var req domain.WithdrawalRequest
	if err := db.Where("request_id = ?", id).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrRequestNotFound)
		}
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, newError(ErrInvalidTransition)
	}

	log.Info().Str("withdrawal_id", id.String()).Str("status", string(to)).Msg("withdrawal status changed")
	return &req, nil
}

// Get returns a single request by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	var req domain.WithdrawalRequest
	if err := s.DB.WithContext(ctx).Where("request_id = ?", id).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrRequestNotFound)
		}
		return nil, err
	}
	return &req, nil
}

// History lists a user's requests, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID, f HistoryFilter) (*HistoryPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	q := s.DB.WithContext(ctx).Model(&domain.WithdrawalRequest{}).Where("user_id = ?", userID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	items := []domain.WithdrawalRequest{}
	if err := q.Order(`"createdAt" DESC`).Offset((f.Page - 1) * f.Limit).Limit(f.Limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return &HistoryPage{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// ListByStatus is the reviewer queue, oldest first.
func (s *Service) ListByStatus(ctx context.Context, status domain.WithdrawalStatus) ([]domain.WithdrawalRequest, error) {
	items := []domain.WithdrawalRequest{}
	err := s.DB.WithContext(ctx).
		Where("status = ?", status).
		Order(`"createdAt" ASC`).
		Find(&items).Error
	return items, err
}

func (s *Service) notify(ctx context.Context, req domain.WithdrawalRequest, send func(Notifier, context.Context, domain.WithdrawalRequest, domain.User)) {
	if s.Notifier == nil {
		return
	}
	var user domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", req.UserID).First(&user).Error; err != nil {
		log.Warn().Err(err).Str("withdrawal_id", req.RequestID.String()).Msg("withdrawal notification skipped: user lookup failed")
		return
	}
	send(s.Notifier, ctx, req, user)
}
