package withdrawals

import (
	"errors"

	wsvc "fortyacres-backend/internal/application/withdrawals"
	"fortyacres-backend/internal/domain"
	"fortyacres-backend/internal/middleware"
	"fortyacres-backend/internal/pkg/constants"
	"fortyacres-backend/internal/pkg/response"
	"fortyacres-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service *wsvc.Service
}

type WithdrawalBody struct {
	Amount         string `json:"amount" validate:"required,numeric"`
	WithdrawalType string `json:"withdrawal_type" validate:"required,oneof=partial full emergency"`
	PropertyID     string `json:"property_id" validate:"omitempty,uuid"`
	Reason         string `json:"reason" validate:"max=500"`
}

type RejectBody struct {
	Note string `json:"note" validate:"max=500"`
}

func parseBody(c *fiber.Ctx) (*WithdrawalBody, decimal.Decimal, error) {
	var body WithdrawalBody
	if err := c.BodyParser(&body); err != nil {
		return nil, decimal.Zero, errors.New("Invalid request body")
	}
	if err := validation.Struct(body); err != nil {
		return nil, decimal.Zero, err
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		return nil, decimal.Zero, errors.New("amount must be a number")
	}
	if !validation.IsWholeCents(amount) {
		return nil, decimal.Zero, errors.New("amount must not have more than 2 decimal places")
	}
	return &body, amount, nil
}

// Preview POST /api/v1/withdrawals/preview
func (h *Handlers) Preview(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	body, amount, err := parseBody(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	quote, err := h.Service.Preview(c.UserContext(), userID, amount, domain.WithdrawalType(body.WithdrawalType))
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Withdrawal preview", quote, nil)
}

// Submit POST /api/v1/withdrawals/submit
func (h *Handlers) Submit(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	body, amount, err := parseBody(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	in := wsvc.SubmitInput{
		UserID: userID,
		Amount: amount,
		Type:   domain.WithdrawalType(body.WithdrawalType),
		Reason: body.Reason,
	}
	if body.PropertyID != "" {
		pid := uuid.MustParse(body.PropertyID)
		in.PropertyID = &pid
	}
	req, err := h.Service.Submit(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return response.SuccessCreated(c, "Withdrawal request submitted", req, nil)
}

// History GET /api/v1/withdrawals/history?status=&page=&limit=
func (h *Handlers) History(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	status := domain.WithdrawalStatus(c.Query("status"))
	if status != "" && !validStatus(status) {
		return response.Error(c, "status must be one of: pending approved rejected completed", fiber.StatusBadRequest, nil)
	}
	page, err := h.Service.History(c.UserContext(), userID, wsvc.HistoryFilter{
		Status: status,
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 20),
	})
	if err != nil {
		return writeError(c, err)
	}
	return response.Page(c, "Withdrawal history", page.Items, page.Total, page.Page, page.Limit)
}

// View GET /api/v1/withdrawals/view/:id. Investors only see their own
// requests; reviewers and admins see any.
func (h *Handlers) View(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for id", fiber.StatusBadRequest, nil)
	}
	req, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	if req.UserID != userID && !constants.AllowedRole(constants.ReviewWithdrawal, middleware.CurrentRole(c)) {
		// Hide existence of other users' requests.
		return writeError(c, wsvc.ErrRequestNotFound)
	}
	return response.Success(c, "Withdrawal request found", req, nil)
}

// ReviewQueue GET /api/v1/withdrawals/review?status=pending
func (h *Handlers) ReviewQueue(c *fiber.Ctx) error {
	status := domain.WithdrawalStatus(c.Query("status", string(domain.WithdrawalStatusPending)))
	if !validStatus(status) {
		return response.Error(c, "status must be one of: pending approved rejected completed", fiber.StatusBadRequest, nil)
	}
	items, err := h.Service.ListByStatus(c.UserContext(), status)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Withdrawal requests", items, fiber.Map{"count": len(items)})
}

// Approve PATCH /api/v1/withdrawals/:id/approve
func (h *Handlers) Approve(c *fiber.Ctx) error {
	reviewerID, id, ok := h.reviewTarget(c)
	if !ok {
		return nil
	}
	req, err := h.Service.Approve(c.UserContext(), id, reviewerID)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Withdrawal request approved", req, nil)
}

// Reject PATCH /api/v1/withdrawals/:id/reject
func (h *Handlers) Reject(c *fiber.Ctx) error {
	reviewerID, id, ok := h.reviewTarget(c)
	if !ok {
		return nil
	}
	var body RejectBody
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
		}
		if err := validation.Struct(body); err != nil {
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		}
	}
	req, err := h.Service.Reject(c.UserContext(), id, reviewerID, body.Note)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Withdrawal request rejected", req, nil)
}

// Complete PATCH /api/v1/withdrawals/:id/complete
func (h *Handlers) Complete(c *fiber.Ctx) error {
	_, id, ok := h.reviewTarget(c)
	if !ok {
		return nil
	}
	req, err := h.Service.Complete(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Withdrawal completed", req, nil)
}

// reviewTarget writes the error response itself when ok is false.
func (h *Handlers) reviewTarget(c *fiber.Ctx) (uuid.UUID, uuid.UUID, bool) {
	reviewerID, ok := middleware.CurrentUserID(c)
	if !ok {
		_ = response.Unauthorized(c, "Unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		_ = response.Error(c, "Invalid UUID format for id", fiber.StatusBadRequest, nil)
		return uuid.Nil, uuid.Nil, false
	}
	return reviewerID, id, true
}

func validStatus(s domain.WithdrawalStatus) bool {
	switch s {
	case domain.WithdrawalStatusPending, domain.WithdrawalStatusApproved,
		domain.WithdrawalStatusRejected, domain.WithdrawalStatusCompleted:
		return true
	}
	return false
}

var statusByCode = map[string]int{
	wsvc.CodeInvalidAmount:       fiber.StatusBadRequest,
	wsvc.CodeInvalidType:         fiber.StatusBadRequest,
	wsvc.CodeNotEligible:         fiber.StatusUnprocessableEntity,
	wsvc.CodeNegativeNetAmount:   fiber.StatusUnprocessableEntity,
	wsvc.CodeAccountNotFound:     fiber.StatusNotFound,
	wsvc.CodeRequestNotFound:     fiber.StatusNotFound,
	wsvc.CodeAccountInactive:     fiber.StatusForbidden,
	wsvc.CodeInvalidTransition:   fiber.StatusConflict,
	wsvc.CodeInsufficientBalance: fiber.StatusConflict,
	wsvc.CodeSelfReview:          fiber.StatusForbidden,
}

func writeError(c *fiber.Ctx, err error) error {
	code := wsvc.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		middleware.RequestLogger(c).Error().Err(err).Str("route", c.Route().Path).Msg("withdrawal request failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	details := fiber.Map{"code": code}
	var we *wsvc.Error
	if errors.As(err, &we) {
		if code == wsvc.CodeNotEligible {
			details["days_until_eligible"] = we.DaysUntilEligible
		}
		return response.Error(c, we.Message, status, details)
	}
	return response.Error(c, err.Error(), status, details)
}
