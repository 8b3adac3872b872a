package handlers

import (
	"github.com/campustroc/backend/internal/dto"
	"github.com/campustroc/backend/internal/middleware"
	"github.com/campustroc/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	page, err := h.notifications.List(c.UserContext(), middleware.GetActor(c), pageOf(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

// MarkRead marks the ids in the body as read, or everything when the body
// has no ids.
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	var req dto.MarkReadRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}
	actor := middleware.GetActor(c)
	updated, err := h.notifications.MarkRead(c.UserContext(), actor, req.IDs)
	if err != nil {
		return respond(c, err)
	}
	unread, err := h.notifications.UnreadCount(c.UserContext(), actor)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(dto.MarkReadResponse{Updated: updated, Unread: unread})
}
