package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"payments-portal/cmd/server/handlers"
	"payments-portal/cmd/server/handlers/httperr"
	paymentsHandlers "payments-portal/cmd/server/handlers/payments"
	"payments-portal/cmd/server/middlewares"
	"payments-portal/internal/clients/intents"
	"payments-portal/internal/clients/mongo"
	"payments-portal/internal/config"
	"payments-portal/internal/logger"
	paymentsServices "payments-portal/internal/services/payments"

	_ "payments-portal/docs" // Load swagger docs

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	RateLimitExpiration = 1 * time.Minute
)

// routerDeps are the collaborators that talk to the outside world.
type routerDeps struct {
	repo     paymentsServices.Repository
	provider paymentsServices.IntentProvider
	ping     handlers.Pinger
	registry *prometheus.Registry
}

// setupRouter wires the production dependencies and returns the app.
func setupRouter(ctx context.Context, cfg config.Config) (*fiber.App, error) {
	repo, err := mongo.NewPaymentsRepo(ctx, mongo.DB())
	if err != nil {
		logger.L().Error(paymentsServices.ErrCreatePaymentsRepo.Error(), "error", err)
		return nil, err
	}

	return newApp(cfg, routerDeps{
		repo:     repo,
		provider: intents.NewLocal(logger.L()),
		ping:     mongo.Ping,
		registry: prometheus.NewRegistry(),
	}), nil
}

// newApp configures and returns a Fiber app with all routes
func newApp(cfg config.Config, deps routerDeps) *fiber.App {
	v := validator.New()

	app := fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
		Immutable:    true, // make Fiber copy all request-derived strings
	})

	// Global middlewares
	app.Use(recover.New())
	app.Use(middlewares.SecurityHeaders())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: "Content-Type",
	}))

	hub := paymentsServices.NewHub(cfg.WSOutboxBuffer)
	var metrics *paymentsServices.Metrics
	if cfg.RouteMetricsEnabled {
		middlewares.AttachMetrics(app, deps.registry)
		metrics = paymentsServices.NewMetrics(deps.registry)
		paymentsServices.RegisterHubMetrics(deps.registry, hub)
	}

	// Health check endpoint, outside the API group to appease scanners and to avoid logging
	app.Get("/healthz", handlers.HealthzWith(deps.ping))

	app.Get("/docs/*", swagger.HandlerDefault)

	tokens := paymentsServices.NewStreamTokens(cfg.StreamTokenSecret, time.Duration(cfg.StreamTokenTTLSec)*time.Second)
	paymentsSvc := paymentsServices.NewService(deps.repo, deps.provider, hub, tokens, logger.L()).WithMetrics(metrics)
	paymentsH := paymentsHandlers.NewHandlers(paymentsSvc, v)

	var api fiber.Router
	if cfg.RequestLoggingEnabled {
		api = app.Group("/api", fiberlogger.New())
		logger.L().Info("request logging enabled")
	} else {
		api = app.Group("/api")
		logger.L().Info("request logging disabled")
	}

	api.Get("/config", handlers.Config(cfg))

	paymentsGrp := api.Group("/payments")
	paymentsGrp.Post("/create-intent",
		middlewares.BuildRateLimiter(cfg.CreateIntentRatePerMin, RateLimitExpiration),
		paymentsH.CreateIntent)
	paymentsGrp.Post("/record-result", paymentsH.RecordResult)

	app.Get("/get-all-payments", paymentsH.List)

	// WebSocket routes
	wsHandlers := paymentsHandlers.NewWebSocketHandlers(hub, cfg.WSMaxSessionSec)
	app.Get("/ws/payments/stream",
		wsHandlers.WSUpgrade,
		middlewares.StreamAuth(cfg.StreamTokenSecret),
		websocket.New(wsHandlers.WSPaymentStream))

	mountSPA(app, cfg.StaticDir)

	return app
}

// reservedPrefixes never fall back to the SPA index.
var reservedPrefixes = []string{"/api", "/ws", "/docs", "/metrics", "/healthz", "/get-all-payments"}

// mountSPA serves the prebuilt UI from dir and answers unknown GET paths
// with its index.html so client-side routes survive a reload.
func mountSPA(app *fiber.App, dir string) {
	if dir == "" {
		return
	}

	app.Static("/", dir, fiber.Static{
		Browse: false,
		Index:  "index.html",
	})

	index := filepath.Join(dir, "index.html")
	app.Get("/*", func(c *fiber.Ctx) error {
		for _, p := range reservedPrefixes {
			if strings.HasPrefix(c.Path(), p) {
				return httperr.Fail(httperr.ErrNotFound)
			}
		}
		if _, err := os.Stat(index); err != nil {
			return httperr.Fail(httperr.ErrNotFound)
		}
		return c.SendFile(index)
	})
}
