package accounts

import (
	"errors"

	acctsvc "fortyacres-backend/internal/application/accounts"
	"fortyacres-backend/internal/domain"
	"fortyacres-backend/internal/middleware"
	"fortyacres-backend/internal/pkg/response"
	"fortyacres-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *acctsvc.Service
}

// Me GET /api/v1/accounts/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	ov, err := h.Service.Overview(c.UserContext(), userID)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Account fetched successfully", ov, nil)
}

type StatusBody struct {
	Status string `json:"status" validate:"required,oneof=active suspended closed"`
}

// SetStatus PATCH /api/v1/accounts/:id/status (MANAGE_ACCOUNTS).
func (h *Handlers) SetStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for id", fiber.StatusBadRequest, nil)
	}
	var body StatusBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if err := validation.Struct(body); err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	account, err := h.Service.SetStatus(c.UserContext(), id, domain.AccountStatus(body.Status))
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Account status updated", account, nil)
}

func mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, acctsvc.ErrAccountNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, acctsvc.ErrInvalidStatus):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("account request failed")
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}
