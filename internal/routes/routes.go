package routes

import (
	"time"

	"github.com/campustroc/backend/internal/config"
	"github.com/campustroc/backend/internal/handlers"
	"github.com/campustroc/backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Health       *handlers.HealthHandler
	Listing      *handlers.ListingHandler
	Messaging    *handlers.MessagingHandler
	Notification *handlers.NotificationHandler
	Admin        *handlers.AdminHandler
	Charter      *handlers.CharterHandler
}

func Setup(app *fiber.App, cfg *config.Config, users middleware.UserLoader, charter middleware.CharterChecker, h Handlers) {
	if cfg.StorageDriver == "local" && cfg.UploadDir != "" {
		app.Static("/uploads", cfg.UploadDir, fiber.Static{MaxAge: 3600})
	}

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	jwt := middleware.JWTProtected(cfg)
	currentUser := middleware.CurrentUser(users, true)
	charterSigned := middleware.CharterRequired(charter)
	// account routes stay reachable before the charter is signed
	account := func(handler fiber.Handler) []fiber.Handler {
		return []fiber.Handler{jwt, currentUser, handler}
	}
	protect := func(handler fiber.Handler) []fiber.Handler {
		return []fiber.Handler{jwt, currentUser, charterSigned, handler}
	}
	optionalJWT := middleware.OptionalJWT(cfg)
	maybeUser := middleware.CurrentUser(users, false)
	optional := func(handler fiber.Handler) []fiber.Handler {
		return []fiber.Handler{optionalJWT, maybeUser, handler}
	}

	api.Get("/health", h.Health.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/logout", account(h.Auth.Logout)...)
	api.Get("/me", account(h.Auth.Me)...)

	api.Get("/charte", account(h.Charter.Status)...)
	api.Post("/charte/sign", account(h.Charter.Sign)...)

	api.Get("/categories", h.Listing.Categories)

	// Listings. Static segments come before /:id.
	listings := api.Group("/annonces")
	listings.Get("/", h.Listing.List)
	listings.Post("/", protect(h.Listing.Create)...)
	listings.Post("/new", protect(h.Listing.Create)...)
	listings.Get("/mine", protect(h.Listing.Mine)...)
	listings.Get("/:id", optional(h.Listing.Get)...)
	listings.Delete("/:id", protect(h.Listing.Delete)...)
	listings.Patch("/:id/finish", protect(h.Listing.Finish)...)
	listings.Post("/:id/edit", protect(h.Listing.Edit)...)
	listings.Post("/:id/favorite", protect(h.Listing.ToggleFavorite)...)
	listings.Post("/:id/contact", protect(h.Messaging.Contact)...)
	listings.Post("/:id/report", protect(h.Listing.Report)...)

	api.Get("/favorites", protect(h.Listing.Favorites)...)

	conversations := api.Group("/conversations")
	conversations.Get("/", protect(h.Messaging.Conversations)...)
	conversations.Get("/:id/messages", protect(h.Messaging.Messages)...)
	conversations.Post("/:id/messages", protect(h.Messaging.Post)...)

	api.Get("/blocks", protect(h.Messaging.Blocked)...)
	api.Post("/users/:id/block", protect(h.Messaging.Block)...)
	api.Delete("/users/:id/block", protect(h.Messaging.Unblock)...)

	api.Get("/notifications", protect(h.Notification.List)...)
	api.Patch("/notifications", protect(h.Notification.MarkRead)...)

	// Moderation panel (moderators and admins)
	admin := api.Group("/admin", jwt, currentUser, charterSigned, middleware.StaffRequired())
	admin.Get("/pending", h.Admin.Pending)
	admin.Post("/annonce/:id/decide", h.Admin.Decide)
	admin.Get("/reports", h.Admin.Reports)
	admin.Patch("/reports/:id", h.Admin.ActionReport)

	// User management (admins only)
	userAdmin := admin.Group("/users", middleware.AdminRequired())
	userAdmin.Get("/", h.Admin.Users)
	userAdmin.Post("/:id/promote", h.Admin.Promote)
	userAdmin.Post("/:id/ban", h.Admin.Ban)
	userAdmin.Post("/:id/unban", h.Admin.Unban)
}
