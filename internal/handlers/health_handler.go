package handlers

import (
	"time"

	"github.com/campustroc/backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	ping   func() error
	search func() bool
}

// NewHealthHandler takes the database ping and the search engine health
// probe; search may be nil when no engine is configured.
func NewHealthHandler(ping func() error, search func() bool) *HealthHandler {
	return &HealthHandler{ping: ping, search: search}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "ok"
	dbStatus := "ok"
	if err := h.ping(); err != nil {
		status = "degraded"
		dbStatus = "unhealthy: " + err.Error()
	}

	searchStatus := "disabled"
	if h.search != nil {
		searchStatus = "ok"
		if !h.search() {
			searchStatus = "unavailable"
		}
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Search:    searchStatus,
	})
}
