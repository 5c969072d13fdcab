package tiers

import (
	tiersvc "fortyacres-backend/internal/application/tiers"
	"fortyacres-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *tiersvc.Service
}

// List GET /api/v1/tiers (public).
func (h *Handlers) List(c *fiber.Ctx) error {
	list, err := h.Service.List(c.UserContext())
	if err != nil {
		log.Error().Err(err).Msg("tier list failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Tiers fetched successfully", list, fiber.Map{"count": len(list)})
}
