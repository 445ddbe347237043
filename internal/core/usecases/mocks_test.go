package usecases_test

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/ports"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- Mock Geocoder ---

type mockGeocoder struct {
	reverseFn func(ctx context.Context, at domain.GeoPoint) (string, error)
}

func (m *mockGeocoder) ReverseCountry(ctx context.Context, at domain.GeoPoint) (string, error) {
	if m.reverseFn != nil {
		return m.reverseFn(ctx, at)
	}
	return "India", nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	areas  []*domain.DrawnArea
	lands  []*domain.LandRegistered
	failFn func() error
}

func (m *mockPublisher) PublishAreaCaptured(_ context.Context, _ string, area *domain.DrawnArea) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.areas = append(m.areas, area)
	if m.failFn != nil {
		return m.failFn()
	}
	return nil
}

func (m *mockPublisher) PublishLandRegistered(_ context.Context, event *domain.LandRegistered) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lands = append(m.lands, event)
	if m.failFn != nil {
		return m.failFn()
	}
	return nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (m *mockCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(_ context.Context, key string, value []byte, ttl int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock LandRegistrationRepository ---

type mockRegistrations struct {
	inserted   []*domain.LandRegistration
	insertErr  error
	listByUser func(ctx context.Context, userID string, limit int) ([]domain.LandRegistration, error)
}

func (m *mockRegistrations) Insert(_ context.Context, reg *domain.LandRegistration) error {
	m.inserted = append(m.inserted, reg)
	return m.insertErr
}

func (m *mockRegistrations) ListByUser(ctx context.Context, userID string, limit int) ([]domain.LandRegistration, error) {
	if m.listByUser != nil {
		return m.listByUser(ctx, userID, limit)
	}
	return nil, nil
}

// --- Mock Backend ---

type mockBackend struct {
	session *domain.AuthSession

	signupFn            func(form domain.SignupForm) (*domain.AuthResult, error)
	signinFn            func(identifier, password string) (*domain.AuthResult, error)
	addLandFn           func(req domain.LandRequest) (*domain.LandResult, error)
	getLandFn           func(userID string) (*domain.LandList, error)
	satelliteFn         func(polygonID string) (*domain.SatelliteResult, error)
	analyzeFn           func(userID string) (*domain.AnalysisResult, error)
	recommendationsFn   func(userID string) (*domain.RecommendationList, error)
	executeOrderingFn   func(userID string, recs []domain.Recommendation) (*domain.OrderingResult, error)
	orderHistoryFn      func(userID string) (*domain.OrderList, error)
	createOrderFn       func(req domain.OrderRequest) (*domain.OrderResult, error)
	getOrderFn          func(orderID string) (*domain.OrderResult, error)
	userOrdersFn        func(userID string) (*domain.OrderList, error)
	updateOrderStatusFn func(orderID, status string) (*domain.OrderResult, error)
	addItemFn           func(orderID string, item domain.OrderItem) (*domain.OrderResult, error)
	deleteOrderFn       func(orderID string) (*domain.Ack, error)
}

// factory returns a BackendFactory that records the session it was built for.
func (m *mockBackend) factory() ports.BackendFactory {
	return func(s *domain.AuthSession) ports.Backend {
		m.session = s
		return m
	}
}

func (m *mockBackend) Signup(_ context.Context, form domain.SignupForm) (*domain.AuthResult, error) {
	if m.signupFn != nil {
		return m.signupFn(form)
	}
	return &domain.AuthResult{}, nil
}

func (m *mockBackend) Signin(_ context.Context, identifier, password string) (*domain.AuthResult, error) {
	if m.signinFn != nil {
		return m.signinFn(identifier, password)
	}
	return &domain.AuthResult{}, nil
}

func (m *mockBackend) AddLand(_ context.Context, req domain.LandRequest) (*domain.LandResult, error) {
	if m.addLandFn != nil {
		return m.addLandFn(req)
	}
	return &domain.LandResult{Success: true}, nil
}

func (m *mockBackend) GetLand(_ context.Context, userID string) (*domain.LandList, error) {
	if m.getLandFn != nil {
		return m.getLandFn(userID)
	}
	return &domain.LandList{Success: true}, nil
}

func (m *mockBackend) GetSatelliteData(_ context.Context, polygonID string) (*domain.SatelliteResult, error) {
	if m.satelliteFn != nil {
		return m.satelliteFn(polygonID)
	}
	return &domain.SatelliteResult{Success: true}, nil
}

func (m *mockBackend) AnalyzeAndOrder(_ context.Context, userID string) (*domain.AnalysisResult, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(userID)
	}
	return &domain.AnalysisResult{Success: true}, nil
}

func (m *mockBackend) GetRecommendations(_ context.Context, userID string) (*domain.RecommendationList, error) {
	if m.recommendationsFn != nil {
		return m.recommendationsFn(userID)
	}
	return &domain.RecommendationList{Success: true}, nil
}

func (m *mockBackend) ExecuteOrdering(_ context.Context, userID string, recs []domain.Recommendation) (*domain.OrderingResult, error) {
	if m.executeOrderingFn != nil {
		return m.executeOrderingFn(userID, recs)
	}
	return &domain.OrderingResult{Success: true}, nil
}

func (m *mockBackend) GetOrderHistory(_ context.Context, userID string) (*domain.OrderList, error) {
	if m.orderHistoryFn != nil {
		return m.orderHistoryFn(userID)
	}
	return &domain.OrderList{Success: true}, nil
}

func (m *mockBackend) CreateOrder(_ context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	if m.createOrderFn != nil {
		return m.createOrderFn(req)
	}
	return &domain.OrderResult{Success: true}, nil
}

func (m *mockBackend) GetOrder(_ context.Context, orderID string) (*domain.OrderResult, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(orderID)
	}
	return &domain.OrderResult{Success: true, Order: &domain.Order{OrderID: domain.ID(orderID)}}, nil
}

func (m *mockBackend) GetUserOrders(_ context.Context, userID string) (*domain.OrderList, error) {
	if m.userOrdersFn != nil {
		return m.userOrdersFn(userID)
	}
	return &domain.OrderList{Success: true}, nil
}

func (m *mockBackend) UpdateOrderStatus(_ context.Context, orderID, status string) (*domain.OrderResult, error) {
	if m.updateOrderStatusFn != nil {
		return m.updateOrderStatusFn(orderID, status)
	}
	return &domain.OrderResult{Success: true}, nil
}

func (m *mockBackend) AddItemToOrder(_ context.Context, orderID string, item domain.OrderItem) (*domain.OrderResult, error) {
	if m.addItemFn != nil {
		return m.addItemFn(orderID, item)
	}
	return &domain.OrderResult{Success: true}, nil
}

func (m *mockBackend) DeleteOrder(_ context.Context, orderID string) (*domain.Ack, error) {
	if m.deleteOrderFn != nil {
		return m.deleteOrderFn(orderID)
	}
	return &domain.Ack{Success: true}, nil
}

func farmer() *domain.AuthSession {
	return &domain.AuthSession{Token: "tok-farmer", User: domain.User{ID: "42", Name: "Asha"}}
}
