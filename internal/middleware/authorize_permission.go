package middleware

import (
	"fortyacres-backend/internal/pkg/constants"
	"fortyacres-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// AuthorizePermission lets the request through when the session role holds
// at least one of perms. A session without a role, or a permission missing
// from constants.PermissionRoles, is a server-side misconfiguration (500).
func AuthorizePermission(perms ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		role := getRoleFromUser(user)
		if role == "" {
			return response.Error(c, "Authorization error", fiber.StatusInternalServerError, nil)
		}
		for _, p := range perms {
			if len(constants.PermissionRoles[p]) == 0 {
				log.Error().Str("permission", p).Str("path", c.Path()).Msg("permission not configured")
				return response.Error(c, "Permission configuration error", fiber.StatusInternalServerError, nil)
			}
		}
		for _, p := range perms {
			if constants.AllowedRole(p, role) {
				return c.Next()
			}
		}
		log.Debug().Str("role", role).Strs("permissions", perms).Str("trace_id", GetTraceID(c)).Msg("permission denied")
		return response.Error(c, "You do not have permission to perform this action", fiber.StatusForbidden, nil)
	}
}

func getRoleFromUser(user interface{}) string {
	m, ok := user.(map[string]interface{})
	if !ok {
		return ""
	}
	r, _ := m["role"].(string)
	return r
}
