package middleware

import (
	"context"
	"log/slog"

	"github.com/campustroc/backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CharterChecker tells whether a user accepted the current charter.
type CharterChecker interface {
	HasSigned(ctx context.Context, userID uuid.UUID) (bool, error)
}

// CharterRequired refuses authenticated users who have not signed the
// charter yet. Must run after CurrentUser.
func CharterRequired(charter CharterChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := GetActor(c)
		if actor == nil {
			return c.Next()
		}
		signed, err := charter.HasSigned(c.UserContext(), actor.UserID)
		if err != nil {
			slog.Error("charter check failed", "user_id", actor.UserID.String(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}
		if !signed {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "You must accept the charter first",
			})
		}
		return c.Next()
	}
}
