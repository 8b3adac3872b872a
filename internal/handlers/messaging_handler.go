package handlers

import (
	"github.com/campustroc/backend/internal/dto"
	"github.com/campustroc/backend/internal/middleware"
	"github.com/campustroc/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type MessagingHandler struct {
	messaging  *services.MessagingService
	moderation *services.ModerationService
}

func NewMessagingHandler(messaging *services.MessagingService, moderation *services.ModerationService) *MessagingHandler {
	return &MessagingHandler{messaging: messaging, moderation: moderation}
}

func (h *MessagingHandler) Contact(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid listing id")
	}
	var req dto.MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	conv, msg, err := h.messaging.Contact(c.UserContext(), middleware.GetActor(c), id, req.Body)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ContactResponse{ConversationID: conv.ID, Message: msg})
}

func (h *MessagingHandler) Conversations(c *fiber.Ctx) error {
	items, err := h.messaging.ListConversations(c.UserContext(), middleware.GetActor(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *MessagingHandler) Messages(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid conversation id")
	}
	items, err := h.messaging.ListMessages(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *MessagingHandler) Post(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid conversation id")
	}
	var req dto.MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	msg, err := h.messaging.PostMessage(c.UserContext(), middleware.GetActor(c), id, req.Body)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *MessagingHandler) Block(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid user id")
	}
	if err := h.moderation.BlockUser(c.UserContext(), middleware.GetActor(c), id); err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "User blocked successfully"})
}

func (h *MessagingHandler) Unblock(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid user id")
	}
	if err := h.moderation.UnblockUser(c.UserContext(), middleware.GetActor(c), id); err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "User unblocked successfully"})
}

func (h *MessagingHandler) Blocked(c *fiber.Ctx) error {
	ids, err := h.moderation.BlockedIDs(c.UserContext(), middleware.GetActor(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"blocked_ids": ids})
}
