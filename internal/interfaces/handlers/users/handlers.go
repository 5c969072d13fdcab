package users

import (
	"errors"

	usersvc "fortyacres-backend/internal/application/users"
	"fortyacres-backend/internal/domain"
	"fortyacres-backend/internal/middleware"
	"fortyacres-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *usersvc.Service
}

// ViewMe GET /api/v1/users/me
func (h *Handlers) ViewMe(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	u, err := h.Service.ViewUser(c.UserContext(), userID.String())
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "User found", fiber.Map{"user": safeUser(u)}, nil)
}

// View GET /api/v1/users/:id (MANAGE_USERS).
func (h *Handlers) View(c *fiber.Ctx) error {
	u, err := h.Service.ViewUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "User found", fiber.Map{"user": safeUser(u)}, nil)
}

// UpdateMe PATCH /api/v1/users/me updates the session user's profile.
func (h *Handlers) UpdateMe(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil || len(body) == 0 {
		return response.Error(c, "Missing update fields", fiber.StatusBadRequest, nil)
	}
	u, err := h.Service.UpdateUser(c.UserContext(), userID.String(), body)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "User updated successfully", fiber.Map{"user": safeUser(u)}, nil)
}

type UpdateRoleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// UpdateRole PATCH /api/v1/users/role (MANAGE_USERS).
func (h *Handlers) UpdateRole(c *fiber.Ctx) error {
	var req UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" || req.Role == "" {
		return response.Error(c, "user_id and role are required", fiber.StatusBadRequest, nil)
	}
	actorID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	u, err := h.Service.UpdateUserRole(c.UserContext(), usersvc.UpdateUserRoleInput{
		ActorUserID:  actorID.String(),
		ActorRole:    middleware.CurrentRole(c),
		TargetUserID: req.UserID,
		TargetRole:   req.Role,
	})
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "User role updated successfully", fiber.Map{"user": safeUser(u)}, nil)
}

func mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usersvc.ErrUserNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, usersvc.ErrEmailTaken):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	case errors.Is(err, usersvc.ErrOnlySuperadminsAssign), errors.Is(err, usersvc.ErrCannotModifyOwnRole):
		return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
	case errors.Is(err, usersvc.ErrMissingUserID), errors.Is(err, usersvc.ErrInvalidUserID),
		errors.Is(err, usersvc.ErrInvalidEmail), errors.Is(err, usersvc.ErrInvalidPassword),
		errors.Is(err, usersvc.ErrFullnameRequired), errors.Is(err, usersvc.ErrInvalidFullname),
		errors.Is(err, usersvc.ErrNoUpdateFields), errors.Is(err, usersvc.ErrInvalidRole),
		errors.Is(err, usersvc.ErrMustKeepOneSuperadmin):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("user request failed")
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}

func safeUser(u *domain.User) fiber.Map {
	return fiber.Map{
		"user_id":   u.UserID,
		"fullname":  u.Fullname,
		"email":     u.Email,
		"role":      u.Role,
		"createdAt": u.CreatedAt,
	}
}
