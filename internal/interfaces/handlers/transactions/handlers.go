package transactions

import (
	"errors"

	txsvc "fortyacres-backend/internal/application/transactions"
	"fortyacres-backend/internal/middleware"
	"fortyacres-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *txsvc.Service
}

// GET /api/v1/transactions?type=&page=&limit=
func (h *Handlers) GetTransactions(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	page, err := h.Service.ViewTransactions(c.UserContext(), userID, txsvc.Filter{
		Type:  c.Query("type"),
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 20),
	})
	switch {
	case errors.Is(err, txsvc.ErrInvalidType):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, txsvc.ErrAccountNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case err != nil:
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Page(c, "Transactions fetched successfully", page.Items, page.Total, page.Page, page.Limit)
}
