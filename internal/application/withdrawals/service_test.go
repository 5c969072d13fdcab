package withdrawals

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"fortyacres-backend/internal/domain"
	"fortyacres-backend/internal/pkg/clock"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) add(ev string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) WithdrawalSubmitted(_ context.Context, req domain.WithdrawalRequest, _ domain.User) {
	n.add("submitted:" + string(req.Status))
}

func (n *recordingNotifier) WithdrawalReviewed(_ context.Context, req domain.WithdrawalRequest, _ domain.User) {
	n.add("reviewed:" + string(req.Status))
}

func (n *recordingNotifier) WithdrawalCompleted(_ context.Context, req domain.WithdrawalRequest, _ domain.User) {
	n.add("completed:" + string(req.Status))
}

type fixture struct {
	svc     *Service
	db      *gorm.DB
	user    domain.User
	account domain.InvestmentAccount
	tier    domain.InvestmentTier
	notes   *recordingNotifier
}

func setupWithdrawalTest(t *testing.T, available string, nextEligible *time.Time) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.InvestmentTier{}, &domain.InvestmentAccount{},
		&domain.WithdrawalRequest{}, &domain.Transaction{},
	))

	tier := domain.InvestmentTier{
		Name:                    "Builder",
		MinInvestment:           d("5000"),
		LockupPeriodMonths:      12,
		WithdrawalFrequencyDays: 30,
		EarlyWithdrawalPenalty:  d("5"),
	}
	require.NoError(t, db.Create(&tier).Error)

	user := domain.User{Fullname: "Ada Investor", Email: "ada@example.com", PasswordHash: "x", Role: "investor"}
	require.NoError(t, db.Create(&user).Error)

	account := domain.InvestmentAccount{
		UserID:                 user.UserID,
		TierID:                 tier.TierID,
		TotalInvested:          d(available),
		AvailableBalance:       d(available),
		NextEligibleWithdrawal: nextEligible,
	}
	require.NoError(t, db.Create(&account).Error)

	notes := &recordingNotifier{}
	svc := &Service{DB: db, Clock: clock.Fixed{T: now}, Fees: DefaultFeePolicy(), Notifier: notes}
	return &fixture{svc: svc, db: db, user: user, account: account, tier: tier, notes: notes}
}

func (f *fixture) reloadAccount(t *testing.T) domain.InvestmentAccount {
	t.Helper()
	var acct domain.InvestmentAccount
	require.NoError(t, f.db.Where("account_id = ?", f.account.AccountID).First(&acct).Error)
	return acct
}

func TestSubmit_PartialEligible(t *testing.T) {
	f := setupWithdrawalTest(t, "10000", nil)
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, SubmitInput{UserID: f.user.UserID, Amount: d("3000"), Type: domain.WithdrawalTypePartial, Reason: "tuition"})
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusPending, req.Status)
	assertDecimal(t, "15", req.ProcessingFee)
	assertDecimal(t, "0", req.PenaltyAmount)
	assertDecimal(t, "2985", req.NetAmount)
	assertDecimal(t, "10000", req.AvailableAmount)
	assert.Equal(t, []string{"submitted:pending"}, f.notes.events)

	var stored domain.WithdrawalRequest
	require.NoError(t, f.db.Where("request_id = ?", req.RequestID).First(&stored).Error)
	assert.Equal(t, "tuition", stored.Reason)
	assertDecimal(t, "2985", stored.NetAmount)

	// submission never moves money
	assertDecimal(t, "10000", f.reloadAccount(t).AvailableBalance)
}

func TestSubmit_InvalidAmount(t *testing.T) {
	f := setupWithdrawalTest(t, "1000", nil)
	ctx := context.Background()

	for _, amount := range []string{"0", "-5", "1000.01", "100.005"} {
		_, err := f.svc.Submit(ctx, SubmitInput{UserID: f.user.UserID, Amount: d(amount), Type: domain.WithdrawalTypePartial})
		assert.ErrorIs(t, err, ErrInvalidAmount, amount)
		assert.Equal(t, CodeInvalidAmount, CodeOf(err))
	}

	_, err := f.svc.Submit(ctx, SubmitInput{UserID: f.user.UserID, Amount: d("1000"), Type: domain.WithdrawalTypePartial})
	assert.NoError(t, err)
}

func TestSubmit_FullMustTakeEverything(t *testing.T) {
	f := setupWithdrawalTest(t, "1000", nil)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, SubmitInput{UserID: f.user.UserID, Amount: d("999"), Type: domain.WithdrawalTypeFull})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	req, err := f.svc.Submit(ctx, SubmitInput{UserID: f.user.UserID, Amount: d("1000"), Type: domain.WithdrawalTypeFull})
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalTypeFull, req.WithdrawalType)
}

func TestSubmit_NotEligibleCarriesDays(t *testing.T) {
	f := setupWithdrawalTest(t, "10000", at(now.AddDate(0, 0, 12)))

	_, err := f.svc.Submit(context.Background(), SubmitInput{UserID: f.user.UserID, Amount: d("3000"), Type: domain.WithdrawalTypePartial})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotEligible)

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, 12, e.DaysUntilEligible)
	assert.Empty(t, f.notes.events)

	var count int64
	f.db.Model(&domain.WithdrawalRequest{}).Count(&count)
	assert.Zero(t, count)
}

func TestSubmit_EmergencyBypassesWindowWithPenalty(t *testing.T) {
	f := setupWithdrawalTest(t, "10000", at(now.AddDate(0, 0, 12)))

	req, err := f.svc.Submit(context.Background(), SubmitInput{UserID: f.user.UserID, Amount: d("5000"), Type: domain.WithdrawalTypeEmergency})
	require.NoError(t, err)
	assertDecimal(t, "25", req.ProcessingFee)
	assertDecimal(t, "250", req.PenaltyAmount)
	assertDecimal(t, "4725", req.NetAmount)
}

func TestSubmit_NegativeNetAmountRejected(t *testing.T) {
	f := setupWithdrawalTest(t, "500", nil)

	_, err := f.svc.Submit(context.Background(), SubmitInput{UserID: f.user.UserID, Amount: d("8"), Type: domain.WithdrawalTypePartial})
	assert.ErrorIs(t, err, ErrNegativeNetAmount)
	assert.Equal(t, CodeNegativeNetAmount, CodeOf(err))
}

func TestSubmit_InvalidType(t *testing.T) {
	f := setupWithdrawalTest(t, "500", nil)
	_, err := f.svc.Submit(context.Background(), SubmitInput{UserID: f.user.UserID, Amount: d("100"), Type: "lump"})
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestSubmit_AccountStates(t *testing.T) {
	f := setupWithdrawalTest(t, "500", nil)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, SubmitInput{UserID: uuid.New(), Amount: d("100"), Type: domain.WithdrawalTypePartial})
	assert.ErrorIs(t, err, ErrAccountNotFound)

	require.NoError(t, f.db.Model(&domain.InvestmentAccount{}).Where("account_id = ?", f.account.AccountID).
		Update("account_status", domain.AccountStatusSuspended).Error)
	_, err = f.svc.Submit(ctx, SubmitInput{UserID: f.user.UserID, Amount: d("100"), Type: domain.WithdrawalTypePartial})
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestPreview_DoesNotPersist(t *testing.T) {
	f := setupWithdrawalTest(t, "10000", nil)

	q, err := f.svc.Preview(context.Background(), f.user.UserID, d("100"), domain.WithdrawalTypePartial)
	require.NoError(t, err)
	assertDecimal(t, "10", q.ProcessingFee)
	assertDecimal(t, "90", q.NetAmount)
	assertDecimal(t, "10000", q.AvailableBalance)
	assert.Equal(t, 0, q.DaysUntilEligible)
	assert.True(t, q.Eligible)

	var count int64
	f.db.Model(&domain.WithdrawalRequest{}).Count(&count)
	assert.Zero(t, count)
	assert.Empty(t, f.notes.events)
}

func TestPreview_EmergencyShowsWait(t *testing.T) {
	f := setupWithdrawalTest(t, "10000", at(now.AddDate(0, 0, 3)))

	q, err := f.svc.Preview(context.Background(), f.user.UserID, d("5000"), domain.WithdrawalTypeEmergency)
	require.NoError(t, err)
	assert.Equal(t, 3, q.DaysUntilEligible)
	assert.False(t, q.Eligible)
	assertDecimal(t, "250", q.PenaltyFee)
}

func TestWorkflow_ApproveThenComplete(t *testing.T) {
	f := setupWithdrawalTest(t, "10000", nil)
	ctx := context.Background()
	reviewer := uuid.New()

	req, err := f.svc.Submit(ctx, SubmitInput{UserID: f.user.UserID, Amount: d("3000"), Type: domain.WithdrawalTypePartial})
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, req.RequestID, reviewer)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, reviewer, *approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	done, err := f.svc.Complete(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusCompleted, done.Status)
	require.NotNil(t, done.ProcessedAt)

	acct := f.reloadAccount(t)
	assertDecimal(t, "7000", acct.AvailableBalance)
	require.NotNil(t, acct.LastWithdrawalDate)
	require.NotNil(t, acct.NextEligibleWithdrawal)
	assert.Equal(t, now.Unix(), acct.LastWithdrawalDate.Unix())
	assert.Equal(t, now.AddDate(0, 0, 30).Unix(), acct.NextEligibleWithdrawal.Unix())

	var ledger domain.Transaction
	require.NoError(t, f.db.Where("related_withdrawal_id = ?", req.RequestID).First(&ledger).Error)
	assert.Equal(t, domain.TxTypeWithdrawal, ledger.Type)
	assertDecimal(t, "3000", ledger.Amount)
	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(ledger.Metadata, &meta))
	assert.Equal(t, "2985", meta["net_amount"])

	assert.Equal(t, []string{"submitted:pending", "reviewed:approved", "completed:completed"}, f.notes.events)

	// completed requests are immutable
	_, err = f.svc.Complete(ctx, req.RequestID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.svc.Reject(ctx, req.RequestID, reviewer, "late")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestWorkflow_CompleteRequiresApproval(t *testing.T) {
	f := setupWithdrawalTest(t, "10000", nil)
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, SubmitInput{UserID: f.user.UserID, Amount: d("3000"), Type: domain.WithdrawalTypePartial})
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, req.RequestID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assertDecimal(t, "10000", f.reloadAccount(t).AvailableBalance)
}

func TestWorkflow_RejectIsTerminal(t *testing.T) {
	f := setupWithdrawalTest(t, "10000", nil)
	ctx := context.Background()
	reviewer := uuid.New()

	req, err := f.svc.Submit(ctx, SubmitInput{UserID: f.user.UserID, Amount: d("3000"), Type: domain.WithdrawalTypePartial})
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, req.RequestID, reviewer, "documents missing")
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusRejected, rejected.Status)
	assert.Equal(t, "documents missing", rejected.ReviewNote)

	_, err = f.svc.Approve(ctx, req.RequestID, reviewer)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestWorkflow_UnknownRequest(t *testing.T) {
	f := setupWithdrawalTest(t, "10000", nil)
	_, err := f.svc.Approve(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrRequestNotFound)
	_, err = f.svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestComplete_InsufficientBalanceRollsBack(t *testing.T) {
	f := setupWithdrawalTest(t, "5000", nil)
	ctx := context.Background()
	reviewer := uuid.New()

	first, err := f.svc.Submit(ctx, SubmitInput{UserID: f.user.UserID, Amount: d("4000"), Type: domain.WithdrawalTypePartial})
	require.NoError(t, err)
	second, err := f.svc.Submit(ctx, SubmitInput{UserID: f.user.UserID, Amount: d("3000"), Type: domain.WithdrawalTypePartial})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, first.RequestID, reviewer)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, second.RequestID, reviewer)
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, first.RequestID)
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, second.RequestID)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	got, err := f.svc.Get(ctx, second.RequestID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusApproved, got.Status)
	assert.Nil(t, got.ProcessedAt)
	assertDecimal(t, "1000", f.reloadAccount(t).AvailableBalance)

	var ledgerCount int64
	f.db.Model(&domain.Transaction{}).Count(&ledgerCount)
	assert.Equal(t, int64(1), ledgerCount)

	// the unpaid request can be closed out instead of waiting on a balance top-up
	closer := uuid.New()
	rejected, err := f.svc.Reject(ctx, second.RequestID, closer, "insufficient balance at payout")
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusRejected, rejected.Status)
	assert.Equal(t, "insufficient balance at payout", rejected.ReviewNote)
	require.NotNil(t, rejected.ApprovedBy)
	assert.Equal(t, reviewer, *rejected.ApprovedBy)

	queue, err := f.svc.ListByStatus(ctx, domain.WithdrawalStatusApproved)
	require.NoError(t, err)
	assert.Empty(t, queue)

	_, err = f.svc.Complete(ctx, second.RequestID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assertDecimal(t, "1000", f.reloadAccount(t).AvailableBalance)
}

func TestApprove_RefusesSelfReview(t *testing.T) {
	f := setupWithdrawalTest(t, "10000", nil)
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, SubmitInput{UserID: f.user.UserID, Amount: d("3000"), Type: domain.WithdrawalTypePartial})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, req.RequestID, f.user.UserID)
	assert.ErrorIs(t, err, ErrSelfReview)
	assert.Equal(t, CodeSelfReview, CodeOf(err))

	got, err := f.svc.Get(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusPending, got.Status)
	assert.Nil(t, got.ApprovedBy)

	approved, err := f.svc.Approve(ctx, req.RequestID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusApproved, approved.Status)
}

func TestComplete_ConcurrentCompletionsNeverOverdraw(t *testing.T) {
	f := setupWithdrawalTest(t, "5000", nil)
	ctx := context.Background()
	reviewer := uuid.New()

	ids := make([]uuid.UUID, 0, 4)
	for i := 0; i < 4; i++ {
		req, err := f.svc.Submit(ctx, SubmitInput{UserID: f.user.UserID, Amount: d("2000"), Type: domain.WithdrawalTypePartial})
		require.NoError(t, err)
		_, err = f.svc.Approve(ctx, req.RequestID, reviewer)
		require.NoError(t, err)
		ids = append(ids, req.RequestID)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			if _, err := f.svc.Complete(ctx, id); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	acct := f.reloadAccount(t)
	assertDecimal(t, "1000", acct.AvailableBalance)
	assert.False(t, acct.AvailableBalance.IsNegative())
}

func TestHistory_FilterAndPaging(t *testing.T) {
	f := setupWithdrawalTest(t, "100000", nil)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		f.svc.Clock = clock.Fixed{T: now.Add(time.Duration(i) * time.Minute)}
		req, err := f.svc.Submit(ctx, SubmitInput{UserID: f.user.UserID, Amount: decimal.NewFromInt(int64(1000 + i)), Type: domain.WithdrawalTypePartial})
		require.NoError(t, err)
		ids = append(ids, req.RequestID)
	}
	_, err := f.svc.Reject(ctx, ids[0], uuid.New(), "")
	require.NoError(t, err)

	page, err := f.svc.History(ctx, f.user.UserID, HistoryFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Len(t, page.Items, 2)

	pending, err := f.svc.History(ctx, f.user.UserID, HistoryFilter{Status: domain.WithdrawalStatusPending})
	require.NoError(t, err)
	assert.Equal(t, int64(4), pending.Total)
	assert.Equal(t, 20, pending.Limit)

	other, err := f.svc.History(ctx, uuid.New(), HistoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, other.Items)

	queue, err := f.svc.ListByStatus(ctx, domain.WithdrawalStatusPending)
	require.NoError(t, err)
	assert.Len(t, queue, 4)
}
