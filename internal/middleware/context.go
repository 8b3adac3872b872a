package middleware

import (
	"errors"

	"github.com/campustroc/backend/internal/access"
	"github.com/campustroc/backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	actorKey = "actor"
	userKey  = "current_user"
)

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}

// GetActor returns the current actor, nil for anonymous requests.
func GetActor(c *fiber.Ctx) *access.Actor {
	if a, ok := c.Locals(actorKey).(*access.Actor); ok {
		return a
	}
	return nil
}

// GetUser returns the loaded account of the current actor.
func GetUser(c *fiber.Ctx) *models.User {
	if u, ok := c.Locals(userKey).(*models.User); ok {
		return u
	}
	return nil
}
