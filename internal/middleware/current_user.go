package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/campustroc/backend/internal/access"
	"github.com/campustroc/backend/internal/dto"
	"github.com/campustroc/backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserLoader fetches the account behind a token subject.
type UserLoader interface {
	CurrentUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// CurrentUser turns the validated JWT into an *access.Actor. Role and ban
// status come from the database so changes apply without a new token.
// When required is false a request without token passes as anonymous.
func CurrentUser(users UserLoader, required bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals("user").(*jwt.Token); !ok {
			if required {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
					Error: true, Message: "Unauthorized",
				})
			}
			return c.Next()
		}

		userID, err := GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid token claims",
			})
		}
		user, err := users.CurrentUser(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			slog.Warn("token subject not loadable", "user_id", userID.String(), "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized: account not found",
			})
		}
		if user.IsBanned {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Your account has been suspended",
			})
		}

		c.Locals(userKey, user)
		c.Locals(actorKey, access.ActorOf(user))
		return c.Next()
	}
}
