package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/krishisahayak/krishi/internal/adapters/backend"
	"github.com/krishisahayak/krishi/internal/adapters/http"
	"github.com/krishisahayak/krishi/internal/adapters/mapbox"
	natsadapter "github.com/krishisahayak/krishi/internal/adapters/nats"
	"github.com/krishisahayak/krishi/internal/adapters/postgres"
	"github.com/krishisahayak/krishi/internal/adapters/valkey"
	"github.com/krishisahayak/krishi/internal/core/ports"
	"github.com/krishisahayak/krishi/internal/core/usecases"
	"github.com/krishisahayak/krishi/internal/pkg/config"
	"github.com/krishisahayak/krishi/internal/pkg/logging"
	"github.com/krishisahayak/krishi/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("krishi-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Cache: sessions and geocoding results
	var sessionCache ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, sign-in sessions will not survive", "error", err)
		cache = nil
	} else {
		sessionCache = cache
		defer cache.Close()
	}

	// Geocoder. Without a token the map is reported as not configured.
	var geocoder ports.Geocoder
	if cfg.Mapbox.Token != "" {
		opts := []mapbox.Option{mapbox.WithBaseURL(cfg.Mapbox.GeocodingURL)}
		if sessionCache != nil {
			opts = append(opts, mapbox.WithCache(sessionCache, cfg.Mapbox.CacheTTLSecond))
		}
		geocoder = mapbox.New(cfg.Mapbox.Token, opts...)
	} else {
		slog.Warn("mapbox token missing, map is disabled")
	}

	// NATS
	var publisher ports.EventPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		publisher = nc
		defer nc.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	// Registration ledger
	var registrations ports.LandRegistrationRepository
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		slog.Warn("database unavailable, registrations will not be recorded", "error", err)
		db = nil
	} else {
		registrations = postgres.NewLandRegistrationRepo(db)
		defer db.Close()
	}

	backends := backend.Factory(backend.Config{BaseURL: cfg.Backend.URL})

	// Use cases
	captureSvc := usecases.NewCaptureService(geocoder, publisher,
		usecases.WithIdleTTL(time.Duration(cfg.Capture.IdleTTLSecond)*time.Second))
	go captureSvc.RunJanitor(ctx, time.Minute)
	authSvc := usecases.NewAuthService(backends, sessionCache)
	onboardingSvc := usecases.NewOnboardingService(captureSvc, backends, registrations, publisher)
	dashboardSvc := usecases.NewDashboardService(backends)
	orderSvc := usecases.NewOrderService(backends)

	deps := &http.Dependencies{
		Captures:   captureSvc,
		Auth:       authSvc,
		Onboarding: onboardingSvc,
		Dashboard:  dashboardSvc,
		Orders:     orderSvc,
		NATS:       natsConn,
		DB:         db,
		Cache:      cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Krishi Sahayak API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "backend", cfg.Backend.URL)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
