package investments

import (
	"errors"
	"strconv"

	invsvc "fortyacres-backend/internal/application/investments"
	"fortyacres-backend/internal/domain"
	"fortyacres-backend/internal/middleware"
	"fortyacres-backend/internal/pkg/response"
	"fortyacres-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const currency = "usd"

type Handlers struct {
	Service     *invsvc.Service
	IntentMaker invsvc.PaymentIntentCreator
}

// ListProperties GET /api/v1/properties?status=funding
func (h *Handlers) ListProperties(c *fiber.Ctx) error {
	status := c.Query("status")
	switch status {
	case "", domain.PropertyStatusFunding, domain.PropertyStatusFunded, domain.PropertyStatusClosed:
	default:
		return response.Error(c, "status must be one of: funding funded closed", fiber.StatusBadRequest, nil)
	}
	list, err := h.Service.ListProperties(c.UserContext(), status)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Properties fetched successfully", list, fiber.Map{"count": len(list)})
}

// GetProperty GET /api/v1/properties/:id
func (h *Handlers) GetProperty(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for id", fiber.StatusBadRequest, nil)
	}
	p, err := h.Service.GetProperty(c.UserContext(), id)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Property found", p, nil)
}

type PropertyBody struct {
	Name         string `json:"name" validate:"required,max=200"`
	Location     string `json:"location" validate:"required,max=200"`
	TargetAmount string `json:"target_amount" validate:"required,numeric"`
	SharePrice   string `json:"share_price" validate:"required,numeric"`
}

// CreateProperty POST /api/v1/properties (MANAGE_PROPERTIES).
func (h *Handlers) CreateProperty(c *fiber.Ctx) error {
	var body PropertyBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if err := validation.Struct(body); err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	target, err1 := decimal.NewFromString(body.TargetAmount)
	price, err2 := decimal.NewFromString(body.SharePrice)
	if err1 != nil || err2 != nil {
		return response.Error(c, invsvc.ErrInvalidAmount.Error(), fiber.StatusBadRequest, nil)
	}
	p, err := h.Service.CreateProperty(c.UserContext(), domain.Property{
		Name:         body.Name,
		Location:     body.Location,
		TargetAmount: target,
		SharePrice:   price,
	})
	if err != nil {
		return mapError(c, err)
	}
	return response.SuccessCreated(c, "Property created", p, nil)
}

type IntentBody struct {
	PropertyID string `json:"property_id" validate:"required,uuid"`
	Shares     int64  `json:"shares" validate:"required,gt=0"`
}

// CreateIntent POST /api/v1/investments/create-intent only creates the Stripe
// PaymentIntent; the investment is recorded when the webhook confirms payment.
func (h *Handlers) CreateIntent(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body IntentBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if err := validation.Struct(body); err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	property, amount, err := h.Service.QuoteShares(c.UserContext(), uuid.MustParse(body.PropertyID), body.Shares)
	if err != nil {
		return mapError(c, err)
	}
	if h.IntentMaker == nil {
		return response.Error(c, "Stripe not configured", fiber.StatusInternalServerError, nil)
	}

	pi, err := h.IntentMaker.Create(amount.Shift(2).Round(0).IntPart(), currency, map[string]string{
		"property_id": property.PropertyID.String(),
		"user_id":     userID.String(),
		"shares":      strconv.FormatInt(body.Shares, 10),
		"amount":      amount.StringFixed(2),
	})
	if err != nil {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		log.Warn().Err(err).Str("property_id", body.PropertyID).Msg("payment intent creation failed")
		return response.Error(c, err.Error(), code, nil)
	}
	return response.Success(c, "Payment intent created", fiber.Map{
		"paymentIntentId": pi.ID,
		"clientSecret":    pi.ClientSecret,
		"amount":          amount,
	}, nil)
}

type RecordBody struct {
	UserID     string `json:"user_id" validate:"required,uuid"`
	PropertyID string `json:"property_id" validate:"omitempty,uuid"`
	Amount     string `json:"amount" validate:"required,numeric"`
	Shares     int64  `json:"shares" validate:"gte=0"`
}

// Record POST /api/v1/investments/record (RECORD_INVESTMENT) books an
// investment received outside Stripe.
func (h *Handlers) Record(c *fiber.Ctx) error {
	var body RecordBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if err := validation.Struct(body); err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		return response.Error(c, invsvc.ErrInvalidAmount.Error(), fiber.StatusBadRequest, nil)
	}
	if !validation.IsWholeCents(amount) {
		return response.Error(c, invsvc.ErrSubCentAmount.Error(), fiber.StatusBadRequest, nil)
	}
	in := invsvc.RecordInput{UserID: uuid.MustParse(body.UserID), Amount: amount, Shares: body.Shares}
	if body.PropertyID != "" {
		pid := uuid.MustParse(body.PropertyID)
		in.PropertyID = &pid
	}
	lot, err := h.Service.RecordInvestment(c.UserContext(), in)
	if err != nil {
		return mapError(c, err)
	}
	return response.SuccessCreated(c, "Investment recorded", lot, nil)
}

func mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, invsvc.ErrPropertyNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, invsvc.ErrInvalidAmount), errors.Is(err, invsvc.ErrSubCentAmount), errors.Is(err, invsvc.ErrInvalidShares):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, invsvc.ErrPropertyNotFunding), errors.Is(err, invsvc.ErrExceedsTarget):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	case errors.Is(err, invsvc.ErrAccountInactive):
		return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("investment request failed")
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}
