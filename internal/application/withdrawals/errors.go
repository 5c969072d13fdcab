package withdrawals

import (
	"errors"
	"fmt"
)

const (
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeNotEligible         = "NOT_ELIGIBLE"
	CodeNegativeNetAmount   = "NEGATIVE_NET_AMOUNT"
	CodeAccountNotFound     = "ACCOUNT_NOT_FOUND"
	CodeAccountInactive     = "ACCOUNT_INACTIVE"
	CodeRequestNotFound     = "REQUEST_NOT_FOUND"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeInvalidType         = "INVALID_WITHDRAWAL_TYPE"
	CodeSelfReview          = "SELF_REVIEW"
)

var (
	ErrInvalidAmount       = errors.New("Amount must be greater than 0 and not exceed the available balance")
	ErrNotEligible         = errors.New("Account is not yet eligible for withdrawal")
	ErrNegativeNetAmount   = errors.New("Fees exceed the requested amount")
	ErrAccountNotFound     = errors.New("Investment account not found")
	ErrAccountInactive     = errors.New("Investment account is not active")
	ErrRequestNotFound     = errors.New("Withdrawal request not found")
	ErrInvalidTransition   = errors.New("Withdrawal request cannot move to that status")
	ErrInsufficientBalance = errors.New("Insufficient available balance")
	ErrInvalidType         = errors.New("Invalid withdrawal type")
	ErrSelfReview          = errors.New("Reviewers cannot approve their own withdrawal request")
)

var codes = map[error]string{
	ErrInvalidAmount:       CodeInvalidAmount,
	ErrNotEligible:         CodeNotEligible,
	ErrNegativeNetAmount:   CodeNegativeNetAmount,
	ErrAccountNotFound:     CodeAccountNotFound,
	ErrAccountInactive:     CodeAccountInactive,
	ErrRequestNotFound:     CodeRequestNotFound,
	ErrInvalidTransition:   CodeInvalidTransition,
	ErrInsufficientBalance: CodeInsufficientBalance,
	ErrInvalidType:         CodeInvalidType,
	ErrSelfReview:          CodeSelfReview,
}

// Error is a request-time validation failure with a stable code for clients.
// It unwraps to one of the package sentinels.
type Error struct {
	Code              string
	Message           string
	DaysUntilEligible int
	err               error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.err }

func newError(sentinel error) *Error {
	return &Error{Code: codes[sentinel], Message: sentinel.Error(), err: sentinel}
}

func notEligible(days int) *Error {
	e := newError(ErrNotEligible)
	e.DaysUntilEligible = days
	e.Message = fmt.Sprintf("%s (eligible in %d day(s))", ErrNotEligible.Error(), days)
	return e
}

// CodeOf returns the client-facing code for err, or "" for unexpected errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	for sentinel, code := range codes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return ""
}
