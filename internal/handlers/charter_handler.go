package handlers

import (
	"github.com/campustroc/backend/internal/dto"
	"github.com/campustroc/backend/internal/middleware"
	"github.com/campustroc/backend/internal/models"
	"github.com/campustroc/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type CharterHandler struct {
	charter *services.CharterService
}

func NewCharterHandler(charter *services.CharterService) *CharterHandler {
	return &CharterHandler{charter: charter}
}

func (h *CharterHandler) Status(c *fiber.Ctx) error {
	agreement, err := h.charter.Agreement(c.UserContext(), middleware.GetActor(c))
	if err != nil {
		return respond(c, err)
	}
	resp := dto.CharterResponse{Section: models.CharterVersion, Signed: agreement != nil}
	if agreement != nil {
		resp.AgreedAt = &agreement.AgreedAt
	}
	return c.JSON(resp)
}

func (h *CharterHandler) Sign(c *fiber.Ctx) error {
	agreement, err := h.charter.Sign(c.UserContext(), middleware.GetActor(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(dto.CharterResponse{Section: agreement.SectionName, Signed: true, AgreedAt: &agreement.AgreedAt})
}
