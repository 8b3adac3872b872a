package handlers

import (
	"strconv"

	"github.com/campustroc/backend/internal/dto"
	"github.com/campustroc/backend/internal/middleware"
	"github.com/campustroc/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	moderation *services.ModerationService
	users      *services.UserService
}

func NewAdminHandler(moderation *services.ModerationService, users *services.UserService) *AdminHandler {
	return &AdminHandler{moderation: moderation, users: users}
}

func (h *AdminHandler) Pending(c *fiber.Ctx) error {
	page := pageOf(c)
	items, total, err := h.moderation.ListPending(c.UserContext(), middleware.GetActor(c), page)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(dto.Page{Items: items, Total: total, Page: page.Page, Limit: page.Limit})
}

func (h *AdminHandler) Decide(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid listing id")
	}
	var req dto.DecideRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	listing, err := h.moderation.Decide(c.UserContext(), middleware.GetActor(c), id, services.Decision(req.Action), req.Reason)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(listing)
}

func (h *AdminHandler) Reports(c *fiber.Ctx) error {
	page := pageOf(c)
	items, total, err := h.moderation.ListReports(c.UserContext(), middleware.GetActor(c), c.Query("status"), page)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(dto.Page{Items: items, Total: total, Page: page.Page, Limit: page.Limit})
}

func (h *AdminHandler) ActionReport(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid report id")
	}
	var req dto.ActionReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	report, err := h.moderation.ActionReport(c.UserContext(), middleware.GetActor(c), id, req.Status, req.AdminNote)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(report)
}

func (h *AdminHandler) Users(c *fiber.Ctx) error {
	page := pageOf(c)
	filter := services.UserFilter{Query: c.Query("q"), Role: c.Query("role"), Page: page}
	if raw := c.Query("banned"); raw != "" {
		banned, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "banned must be true or false")
		}
		filter.Banned = &banned
	}
	users, total, err := h.users.List(c.UserContext(), middleware.GetActor(c), filter)
	if err != nil {
		return respond(c, err)
	}
	items := make([]dto.UserResponse, len(users))
	for i := range users {
		items[i] = dto.NewUserResponse(&users[i])
	}
	return c.JSON(dto.Page{Items: items, Total: total, Page: page.Page, Limit: page.Limit})
}

func (h *AdminHandler) Promote(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid user id")
	}
	var req dto.PromoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	user, err := h.users.Promote(c.UserContext(), middleware.GetActor(c), id, req.Role, req.Campus)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(dto.NewUserResponse(user))
}

func (h *AdminHandler) Ban(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid user id")
	}
	var req dto.BanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	user, err := h.users.Ban(c.UserContext(), middleware.GetActor(c), id, req.Reason)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(dto.NewUserResponse(user))
}

func (h *AdminHandler) Unban(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid user id")
	}
	user, err := h.users.Unban(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(dto.NewUserResponse(user))
}

