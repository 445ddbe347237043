package http_test

import (
	"context"
	"sync"

	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/ports"
)

// ---- Mock ports ----

type mockGeocoder struct {
	reverseFn func(ctx context.Context, at domain.GeoPoint) (string, error)
}

func (m *mockGeocoder) ReverseCountry(ctx context.Context, at domain.GeoPoint) (string, error) {
	if m.reverseFn != nil {
		return m.reverseFn(ctx, at)
	}
	return "India", nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	return v, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// mockBackend implements the calls the handler tests exercise; any other
// call panics through the nil embedded interface.
type mockBackend struct {
	ports.Backend

	signinFn       func(identifier, password string) (*domain.AuthResult, error)
	signupFn       func(form domain.SignupForm) (*domain.AuthResult, error)
	addLandFn      func(req domain.LandRequest) (*domain.LandResult, error)
	analyzeFn      func(userID string) (*domain.AnalysisResult, error)
	orderHistoryFn func(userID string) (*domain.OrderList, error)
	userOrdersFn   func(userID string) (*domain.OrderList, error)
	createOrderFn  func(req domain.OrderRequest) (*domain.OrderResult, error)
	getOrderFn     func(orderID string) (*domain.OrderResult, error)
	updateStatusFn func(orderID, status string) (*domain.OrderResult, error)
	deleteOrderFn  func(orderID string) (*domain.Ack, error)
}

func (m *mockBackend) factory() ports.BackendFactory {
	return func(*domain.AuthSession) ports.Backend { return m }
}

func (m *mockBackend) Signin(_ context.Context, identifier, password string) (*domain.AuthResult, error) {
	if m.signinFn != nil {
		return m.signinFn(identifier, password)
	}
	return &domain.AuthResult{Success: true, Token: "tok-farmer", User: &domain.User{ID: "42", Name: "Asha"}}, nil
}

func (m *mockBackend) Signup(_ context.Context, form domain.SignupForm) (*domain.AuthResult, error) {
	if m.signupFn != nil {
		return m.signupFn(form)
	}
	return &domain.AuthResult{Success: true, Token: "tok-new", User: &domain.User{ID: "43", Name: form.Name}}, nil
}

func (m *mockBackend) AddLand(_ context.Context, req domain.LandRequest) (*domain.LandResult, error) {
	if m.addLandFn != nil {
		return m.addLandFn(req)
	}
	return &domain.LandResult{Success: true, Land: &domain.Land{ID: "17", PolygonID: "poly-17"}}, nil
}

func (m *mockBackend) AnalyzeAndOrder(_ context.Context, userID string) (*domain.AnalysisResult, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(userID)
	}
	return &domain.AnalysisResult{Success: true}, nil
}

func (m *mockBackend) GetOrderHistory(_ context.Context, userID string) (*domain.OrderList, error) {
	if m.orderHistoryFn != nil {
		return m.orderHistoryFn(userID)
	}
	return &domain.OrderList{Success: true}, nil
}

func (m *mockBackend) GetUserOrders(_ context.Context, userID string) (*domain.OrderList, error) {
	if m.userOrdersFn != nil {
		return m.userOrdersFn(userID)
	}
	return &domain.OrderList{Success: true}, nil
}

func (m *mockBackend) CreateOrder(_ context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	if m.createOrderFn != nil {
		return m.createOrderFn(req)
	}
	return &domain.OrderResult{Success: true, Order: &domain.Order{OrderID: "o-1"}}, nil
}

func (m *mockBackend) GetOrder(_ context.Context, orderID string) (*domain.OrderResult, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(orderID)
	}
	return &domain.OrderResult{Success: true, Order: &domain.Order{OrderID: domain.ID(orderID)}}, nil
}

func (m *mockBackend) UpdateOrderStatus(_ context.Context, orderID, status string) (*domain.OrderResult, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(orderID, status)
	}
	return &domain.OrderResult{Success: true, Order: &domain.Order{OrderID: domain.ID(orderID), Status: status}}, nil
}

func (m *mockBackend) DeleteOrder(_ context.Context, orderID string) (*domain.Ack, error) {
	if m.deleteOrderFn != nil {
		return m.deleteOrderFn(orderID)
	}
	return &domain.Ack{Success: true}, nil
}
