package middleware

import (
	"github.com/campustroc/backend/internal/access"
	"github.com/campustroc/backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// StaffRequired lets moderators and admins through. It must run after
// CurrentUser.
func StaffRequired() fiber.Handler {
	return requireRole("Moderator access required", (*access.Actor).IsStaff)
}

// AdminRequired lets admins through. It must run after CurrentUser.
func AdminRequired() fiber.Handler {
	return requireRole("Admin access required", (*access.Actor).IsAdmin)
}

func requireRole(message string, allowed func(*access.Actor) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := GetActor(c)
		if actor == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		if !allowed(actor) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: message,
			})
		}
		return c.Next()
	}
}
