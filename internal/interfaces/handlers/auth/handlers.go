package auth

import (
	"context"
	"errors"

	authsvc "fortyacres-backend/internal/application/auth"
	"fortyacres-backend/internal/application/users"
	"fortyacres-backend/internal/domain"
	"fortyacres-backend/internal/middleware"
	"fortyacres-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Welcomer greets newly registered users.
type Welcomer interface {
	Welcome(ctx context.Context, user domain.User)
}

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	UserFinder authsvc.UserFinder
	Users      *users.Service
	Welcomer   Welcomer
	Rdb        *redis.Client
	Config     middleware.SessionConfig
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
}

// Login POST /api/v1/auth/login: authenticate, start a session, track it
// under user_sessions:<user_id> and set the cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.UserFinder == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return response.Error(c, authsvc.ErrEmailPasswordRequired.Error(), fiber.StatusBadRequest, nil)
	}

	user, err := h.UserFinder.FindByEmailAndPassword(c.UserContext(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrEmailPasswordRequired):
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case errors.Is(err, authsvc.ErrInvalidEmail), errors.Is(err, authsvc.ErrIncorrectPassword):
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		default:
			log.Error().Err(err).Msg("login lookup failed")
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}

	sessionID := middleware.RegenerateSessionID(c)
	shape := authsvc.ShapeOf(user)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:   shape.UserID,
		Fullname: shape.Fullname,
		Email:    shape.Email,
		Role:     shape.Role,
	})

	if err := h.Rdb.SAdd(c.UserContext(), middleware.UserSessionsPrefix+shape.UserID, sessionID).Err(); err != nil {
		log.Error().Err(err).Msg("session tracking failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)

	log.Info().Str("user_id", shape.UserID).Msg("login")
	return response.Success(c, "Login successful", fiber.Map{"user": shape}, nil)
}

// Register POST /api/v1/auth/register creates an investor account.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	u, err := h.Users.CreateUser(c.UserContext(), users.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Fullname: req.Fullname,
	})
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			return response.Error(c, err.Error(), fiber.StatusConflict, nil)
		}
		if isUserInputError(err) {
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		}
		log.Error().Err(err).Msg("register failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	if h.Welcomer != nil {
		h.Welcomer.Welcome(c.UserContext(), *u)
	}
	return response.SuccessCreated(c, "User registered successfully", fiber.Map{"user": authsvc.ShapeOf(u)}, nil)
}

func isUserInputError(err error) bool {
	for _, e := range []error{users.ErrInvalidEmail, users.ErrInvalidPassword, users.ErrFullnameRequired, users.ErrInvalidFullname} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// Me GET /api/v1/auth/me returns the session user.
func (h *Handlers) Me(c *fiber.Ctx) error {
	sessionUser := middleware.GetUser(c)
	user, err := authsvc.VerifyUser(sessionUser)
	if err != nil {
		log.Debug().Str("path", "/auth/me").
			Bool("session_id_present", middleware.GetSessionID(c) != "").
			Bool("session_user_nil", sessionUser == nil).
			Msg("auth/me: not authenticated")
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// Logout DELETE /api/v1/auth/logout drops the session and clears the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := c.UserContext()

	if sessionID != "" {
		if userID, ok := middleware.CurrentUserID(c); ok {
			_ = h.Rdb.SRem(ctx, middleware.UserSessionsPrefix+userID.String(), sessionID).Err()
		}
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out successfully", nil, nil)
}
