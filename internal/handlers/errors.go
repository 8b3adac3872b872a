package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/campustroc/backend/internal/dto"
	"github.com/campustroc/backend/internal/services"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// respond maps a service error to its HTTP status and writes the error
// envelope. Unknown errors become a 500 with a generic message.
func respond(c *fiber.Ctx, err error) error {
	status, message := classify(err)
	if status == fiber.StatusInternalServerError {
		slog.Error("request failed",
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest, strip(err, services.ErrValidation)
	case errors.Is(err, services.ErrUnauthenticated),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		return fiber.StatusUnauthorized, err.Error()
	case errors.Is(err, services.ErrForbidden):
		if msg := strip(err, services.ErrForbidden); msg != err.Error() {
			return fiber.StatusForbidden, msg
		}
		return fiber.StatusForbidden, "You are not allowed to do this"
	case errors.Is(err, services.ErrListingNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrReportNotFound),
		errors.Is(err, services.ErrConversationNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrInvalidTransition):
		return fiber.StatusConflict, err.Error()
	case errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict, strip(err, services.ErrConflict)
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

// strip drops the sentinel prefix so clients only see the detail.
func strip(err, sentinel error) string {
	msg := err.Error()
	if detail := strings.TrimPrefix(msg, sentinel.Error()+": "); detail != "" {
		return detail
	}
	return msg
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func parseID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

func pageOf(c *fiber.Ctx) services.Page {
	return services.NewPage(c.QueryInt("page", 1), c.QueryInt("limit", 20))
}

// ErrorHandler is the Fiber fallback for errors that escape a handler
// (unknown routes, body limit, panics turned into errors).
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{Error: true, Message: message})
}
