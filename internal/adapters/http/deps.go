package http

import (
	"github.com/nats-io/nats.go"

	"github.com/krishisahayak/krishi/internal/adapters/postgres"
	"github.com/krishisahayak/krishi/internal/adapters/valkey"
	"github.com/krishisahayak/krishi/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Captures   *usecases.CaptureService
	Auth       *usecases.AuthService
	Onboarding *usecases.OnboardingService
	Dashboard  *usecases.DashboardService
	Orders     *usecases.OrderService
	NATS       *nats.Conn
	DB         *postgres.DB
	Cache      *valkey.Cache
}
