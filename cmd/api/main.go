package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"doccatalog/docs"
	"doccatalog/internal/auth"
	"doccatalog/internal/config"
	handlers "doccatalog/internal/http/handler"
	"doccatalog/internal/http/middleware"
	"doccatalog/internal/otel"
	"doccatalog/internal/repository/backend"
	"doccatalog/internal/service"
)

// @title Document Catalog API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.TimeLocation()
	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, cfg.Tracing, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Error("tracing shutdown failed", "error", err)
		}
	}()

	// Open the configured persistence backend; SQL backends are migrated here
	store, err := backend.Open(ctx, cfg, loc)
	if err != nil {
		log.Fatalf("failed to open %s backend: %v", cfg.Persistence.Backend, err)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	catalogSvc, err := newCatalogService(reg, store, cfg.Persistence, logger)
	if err != nil {
		log.Fatalf("failed to initialize catalog service: %v", err)
	}

	authMiddleware, closeAuth, err := newAuthMiddleware(ctx, cfg.Auth, logger)
	if err != nil {
		log.Fatalf("failed to initialize authentication: %v", err)
	}
	defer closeAuth()

	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    8 * 1024 * 1024,
		// Request strings are kept in per-owner view state and metric labels
		Immutable: true,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(loc))
	app.Use(httpMetrics.Handler())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Authorization, Content-Type, X-Request-ID",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	handlers.RegisterProbes(app, store.DB)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	// Everything registered on the group requires an identity
	handlers.RegisterRoutes(app.Group("", authMiddleware), catalogSvc)

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr, "backend", store.Name, "auth_disabled", cfg.Auth.Disabled)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// newCatalogService registers the catalog metrics on reg and builds the
// service over the opened backend.
func newCatalogService(reg prometheus.Registerer, b *backend.Backend, p config.PersistenceConfig, logger *slog.Logger) (service.CatalogService, error) {
	metrics, err := service.NewMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("register catalog metrics: %w", err)
	}
	return service.NewCatalogService(b.Repo, service.Options{
		Backend:     b.Name,
		SaveTimeout: p.Timeout(),
		SeedOnEmpty: p.SeedOnEmpty,
		Logger:      logger,
		Metrics:     metrics,
	}), nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// newAuthMiddleware verifies Supabase tokens, or pins every request to the
// default owner when AUTH_DISABLED is set for local use.
func newAuthMiddleware(ctx context.Context, cfg config.AuthConfig, logger *slog.Logger) (fiber.Handler, func(), error) {
	if cfg.Disabled {
		logger.Warn("authentication disabled", "owner", cfg.DefaultOwner)
		return middleware.StaticAuth(auth.Identity{UserID: cfg.DefaultOwner}), func() {}, nil
	}

	verifier, err := auth.NewJWTVerifier(ctx, cfg.JWKSURL(), logger)
	if err != nil {
		return nil, nil, err
	}
	return middleware.Auth(verifier), func() { _ = verifier.Close() }, nil
}
