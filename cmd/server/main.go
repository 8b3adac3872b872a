package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/campustroc/backend/internal/config"
	"github.com/campustroc/backend/internal/database"
	"github.com/campustroc/backend/internal/handlers"
	"github.com/campustroc/backend/internal/logging"
	"github.com/campustroc/backend/internal/mail"
	"github.com/campustroc/backend/internal/middleware"
	"github.com/campustroc/backend/internal/routes"
	"github.com/campustroc/backend/internal/search"
	"github.com/campustroc/backend/internal/services"
	"github.com/campustroc/backend/internal/session"
	"github.com/campustroc/backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewJSONHandler(os.Stdout, cfg.LogLevel),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, logging.DefaultRetention, cleanupDone)

	// Image storage
	ctx := context.Background()
	var store storage.Store
	switch cfg.StorageDriver {
	case "minio":
		minioStore, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			BaseURL:   cfg.PublicBaseURL,
		})
		if err != nil {
			slog.Error("minio storage init failed", "error", err)
			os.Exit(1)
		}
		store = minioStore
	default:
		localStore, err := storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
		if err != nil {
			slog.Error("local storage init failed", "error", err)
			os.Exit(1)
		}
		store = localStore
	}
	slog.Info("image storage ready", "driver", cfg.StorageDriver)

	// Refresh token sessions
	var sessions session.Store = session.NewGormStore(database.DB)
	var redisStore *session.RedisStore
	if cfg.RedisURL != "" {
		rs, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			slog.Error("redis session store init failed", "error", err)
			os.Exit(1)
		}
		redisStore = rs
		sessions = rs
		slog.Info("sessions stored in redis")
	}

	// Search
	var meili *search.Meili
	var searchHealthy func() bool
	if cfg.MeiliURL != "" {
		meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliAPIKey)
		searchHealthy = meili.Healthy
	}
	index := search.NewService(meili)

	mailer := mail.New(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
		FromName: cfg.MailFromName,
	})

	// Services
	authService := services.NewAuthService(database.DB, cfg, sessions)
	userService := services.NewUserService(database.DB, mailer, sessions, cfg.AppName)
	listingService := services.NewListingService(database.DB, store, index, cfg)
	moderationService := services.NewModerationService(database.DB, index)
	messagingService := services.NewMessagingService(database.DB)
	notificationService := services.NewNotificationService(database.DB)
	archiveService := services.NewArchiveService(database.DB, index)
	charterService := services.NewCharterService(database.DB)

	// Background archiving of expired listings
	archiveDone := make(chan struct{})
	archiveService.StartArchiver(cfg.ArchiveInterval, archiveDone)

	if meili != nil {
		go func() {
			n, err := listingService.Reindex(ctx)
			if err != nil {
				slog.Warn("search reindex failed", "error", err)
				return
			}
			slog.Info("search reindexed", "listings", n)
		}()
	}

	// Handlers
	h := routes.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		Health:       handlers.NewHealthHandler(database.Ping, searchHealthy),
		Listing:      handlers.NewListingHandler(listingService, moderationService),
		Messaging:    handlers.NewMessagingHandler(messagingService, moderationService),
		Notification: handlers.NewNotificationHandler(notificationService),
		Admin:        handlers.NewAdminHandler(moderationService, userService),
		Charter:      handlers.NewCharterHandler(charterService),
	}

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app (body limit leaves room for one image plus form fields)
	app := fiber.New(fiber.Config{
		BodyLimit:    int(cfg.MaxImageBytes) + 1024*1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, authService, charterService, h)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(archiveDone)
	close(cleanupDone)
	index.Close()

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if redisStore != nil {
		if err := redisStore.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}
