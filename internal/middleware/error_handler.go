package middleware

import (
	"errors"

	"fortyacres-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ErrorHandler renders errors that escaped a handler in the standard envelope.
// Missing rows surface as 404; anything else unknown is a 500 and is logged
// with the route and caller.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message
	case errors.Is(err, gorm.ErrRecordNotFound):
		code = fiber.StatusNotFound
		message = "Not Found"
	}
	if code >= 500 {
		ev := RequestLogger(c).Error().Err(err).Str("method", c.Method()).Str("route", c.Route().Path)
		if uid, ok := CurrentUserID(c); ok {
			ev = ev.Str("user_id", uid.String())
		}
		ev.Msg("api call failed")
	}
	return response.Error(c, message, code, map[string]interface{}{})
}
