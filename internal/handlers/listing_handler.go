package handlers

import (
	"mime/multipart"
	"slices"
	"strings"

	"github.com/campustroc/backend/internal/dto"
	"github.com/campustroc/backend/internal/middleware"
	"github.com/campustroc/backend/internal/models"
	"github.com/campustroc/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ListingHandler struct {
	listings   *services.ListingService
	moderation *services.ModerationService
}

func NewListingHandler(listings *services.ListingService, moderation *services.ModerationService) *ListingHandler {
	return &ListingHandler{listings: listings, moderation: moderation}
}

func listingInput(c *fiber.Ctx) services.ListingInput {
	return services.ListingInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Type:        models.ListingType(c.FormValue("type")),
		Campus:      models.Campus(c.FormValue("campus")),
		Category:    models.Category(c.FormValue("category")),
	}
}

// imageFile returns the uploaded image or nil when none was sent.
func imageFile(c *fiber.Ctx) *multipart.FileHeader {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil
	}
	return fh
}

func (h *ListingHandler) List(c *fiber.Ctx) error {
	page := pageOf(c)
	items, total, err := h.listings.ListPublished(c.UserContext(), services.ListingFilter{
		Campus:   c.Query("campus"),
		Category: c.Query("category"),
		Type:     c.Query("type"),
		Query:    c.Query("q"),
		Page:     page,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(dto.Page{Items: items, Total: total, Page: page.Page, Limit: page.Limit})
}

// Categories lists the listing categories sorted by display name.
func (h *ListingHandler) Categories(c *fiber.Ctx) error {
	items := make([]dto.CategoryResponse, 0, len(models.Categories))
	for _, cat := range models.Categories {
		items = append(items, dto.CategoryResponse{ID: cat, Name: cat.Label()})
	}
	slices.SortFunc(items, func(a, b dto.CategoryResponse) int {
		return strings.Compare(a.Name, b.Name)
	})
	return c.JSON(items)
}

func (h *ListingHandler) Create(c *fiber.Ctx) error {
	listing, err := h.listings.Create(c.UserContext(), middleware.GetActor(c), listingInput(c), imageFile(c))
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(listing)
}

func (h *ListingHandler) Mine(c *fiber.Ctx) error {
	items, err := h.listings.ListMine(c.UserContext(), middleware.GetActor(c), c.Query("state"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *ListingHandler) Get(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid listing id")
	}
	actor := middleware.GetActor(c)
	listing, err := h.listings.Get(c.UserContext(), actor, id)
	if err != nil {
		return respond(c, err)
	}
	favorite, err := h.listings.IsFavorite(c.UserContext(), actor, id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(dto.ListingDetail{Listing: *listing, IsFavorite: favorite})
}

func (h *ListingHandler) Edit(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid listing id")
	}
	listing, err := h.listings.Edit(c.UserContext(), middleware.GetActor(c), id, listingInput(c), imageFile(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(listing)
}

func (h *ListingHandler) Finish(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid listing id")
	}
	listing, err := h.listings.Complete(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(listing)
}

func (h *ListingHandler) Delete(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid listing id")
	}
	if err := h.listings.Delete(c.UserContext(), middleware.GetActor(c), id); err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Listing deleted"})
}

func (h *ListingHandler) ToggleFavorite(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid listing id")
	}
	favorited, err := h.listings.ToggleFavorite(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(dto.FavoriteResponse{ListingID: id, Favorited: favorited})
}

func (h *ListingHandler) Favorites(c *fiber.Ctx) error {
	items, err := h.listings.ListFavorites(c.UserContext(), middleware.GetActor(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *ListingHandler) Report(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid listing id")
	}
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	report, err := h.moderation.CreateReport(c.UserContext(), middleware.GetActor(c), id, req.Reason)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}
