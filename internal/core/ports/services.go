package ports

import (
	"context"
	"errors"

	"github.com/krishisahayak/krishi/internal/core/domain"
)

// ErrCacheMiss is returned by CacheService.Get when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// Geocoder resolves the country containing a point. It returns "" with a nil
// error when the point lies in no country.
type Geocoder interface {
	ReverseCountry(ctx context.Context, at domain.GeoPoint) (string, error)
}

// Backend is the Krishi REST backend.
type Backend interface {
	Signup(ctx context.Context, form domain.SignupForm) (*domain.AuthResult, error)
	Signin(ctx context.Context, identifier, password string) (*domain.AuthResult, error)

	AddLand(ctx context.Context, req domain.LandRequest) (*domain.LandResult, error)
	GetLand(ctx context.Context, userID string) (*domain.LandList, error)
	GetSatelliteData(ctx context.Context, polygonID string) (*domain.SatelliteResult, error)

	AnalyzeAndOrder(ctx context.Context, userID string) (*domain.AnalysisResult, error)
	GetRecommendations(ctx context.Context, userID string) (*domain.RecommendationList, error)
	ExecuteOrdering(ctx context.Context, userID string, recs []domain.Recommendation) (*domain.OrderingResult, error)
	GetOrderHistory(ctx context.Context, userID string) (*domain.OrderList, error)

	CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error)
	GetOrder(ctx context.Context, orderID string) (*domain.OrderResult, error)
	GetUserOrders(ctx context.Context, userID string) (*domain.OrderList, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) (*domain.OrderResult, error)
	AddItemToOrder(ctx context.Context, orderID string, item domain.OrderItem) (*domain.OrderResult, error)
	DeleteOrder(ctx context.Context, orderID string) (*domain.Ack, error)
}

// BackendFactory builds a Backend acting on behalf of session. A nil session
// makes anonymous calls.
type BackendFactory func(session *domain.AuthSession) Backend

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishAreaCaptured(ctx context.Context, captureID string, area *domain.DrawnArea) error
	PublishLandRegistered(ctx context.Context, event *domain.LandRegistered) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeLandRegistered(ctx context.Context, handler func(ctx context.Context, event *domain.LandRegistered) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// WorkflowStarter starts long-running follow-up work.
type WorkflowStarter interface {
	StartLandFollowUp(ctx context.Context, in domain.LandFollowUp) error
}
