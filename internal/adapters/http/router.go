package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/krishisahayak/krishi/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

func withTimeout(h fiber.Handler) fiber.Handler {
	return timeout.NewWithContext(h, requestTimeout)
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Request-scoped slog logger
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout; fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	auth := RequireSession(deps)

	// Area capture
	v1.Get("/map", MapViewHandler(deps))
	v1.Post("/captures", withTimeout(OpenCaptureHandler(deps)))
	v1.Get("/captures/:id", GetCaptureHandler(deps))
	v1.Delete("/captures/:id", CloseCaptureHandler(deps))
	v1.Get("/captures/:id/area", CaptureAreaHandler(deps))
	v1.Post("/captures/:id/events", withTimeout(DrawEventHandler(deps)))
	v1.Post("/captures/:id/land", auth, withTimeout(RegisterLandHandler(deps)))

	// Auth
	v1.Post("/auth/signin", withTimeout(SigninHandler(deps)))
	v1.Post("/auth/signup", withTimeout(SignupHandler(deps)))
	v1.Post("/auth/logout", auth, withTimeout(LogoutHandler(deps)))
	v1.Get("/auth/me", auth, MeHandler())

	// Lands and dashboard
	v1.Get("/lands", auth, withTimeout(ListLandsHandler(deps)))
	v1.Get("/lands/registrations", auth, withTimeout(LandRegistrationsHandler(deps)))
	v1.Post("/lands/satellite", auth, withTimeout(SatelliteDataHandler(deps)))
	v1.Get("/dashboard", auth, withTimeout(DashboardHandler(deps)))
	v1.Get("/recommendations", auth, withTimeout(RecommendationsHandler(deps)))

	// Orders
	v1.Post("/orders", auth, withTimeout(PlaceOrderHandler(deps)))
	v1.Post("/orders/automated", auth, withTimeout(AutomatedOrderHandler(deps)))
	v1.Get("/orders", auth, withTimeout(ListOrdersHandler(deps)))
	v1.Get("/orders/history", auth, withTimeout(OrderHistoryHandler(deps)))
	v1.Get("/orders/:id", auth, withTimeout(GetOrderHandler(deps)))
	v1.Put("/orders/:id/status", auth, withTimeout(UpdateOrderStatusHandler(deps)))
	v1.Post("/orders/:id/items", auth, withTimeout(AddOrderItemHandler(deps)))
	v1.Delete("/orders/:id", auth, withTimeout(DeleteOrderHandler(deps)))

	// GraphQL
	app.Post("/graphql", withTimeout(GraphQLHandler(deps)))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket relay of emitted areas
	app.Use("/ws", func(c *fiber.Ctx) error {
		if deps.NATS == nil {
			return newError(c, fiber.StatusServiceUnavailable, "unavailable", "live updates are not configured")
		}
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
