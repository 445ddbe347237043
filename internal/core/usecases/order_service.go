package usecases

import (
	"context"
	"fmt"
	"slices"

	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/ports"
)

// OrderStatuses are the states an order may be moved to.
var OrderStatuses = []string{"pending", "confirmed", "processing", "shipped", "delivered", "cancelled"}

// OrderService manages the farmer's input orders.
type OrderService struct {
	backend ports.BackendFactory
}

func NewOrderService(backend ports.BackendFactory) *OrderService {
	return &OrderService{backend: backend}
}

func (s *OrderService) Get(ctx context.Context, sess *domain.AuthSession, orderID string) (*domain.Order, error) {
	res, err := s.backend(sess).GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	if !res.Success || res.Order == nil {
		return nil, fmt.Errorf("get order %s: %w: %s", orderID, domain.ErrRejected, res.Message)
	}
	return res.Order, nil
}

// List returns every order the user placed.
func (s *OrderService) List(ctx context.Context, sess *domain.AuthSession) ([]domain.Order, error) {
	res, err := s.backend(sess).GetUserOrders(ctx, sess.UserID())
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return ordersOf(res), nil
}

// History returns the orders placed by the agent on the user's behalf.
func (s *OrderService) History(ctx context.Context, sess *domain.AuthSession) ([]domain.Order, error) {
	res, err := s.backend(sess).GetOrderHistory(ctx, sess.UserID())
	if err != nil {
		return nil, fmt.Errorf("order history: %w", err)
	}
	return ordersOf(res), nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, sess *domain.AuthSession, orderID, status string) (*domain.Order, error) {
	if !slices.Contains(OrderStatuses, status) {
		return nil, &domain.ValidationError{Fields: map[string]string{"status": "Status is not recognised"}}
	}
	res, err := s.backend(sess).UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		return nil, fmt.Errorf("update order %s: %w", orderID, err)
	}
	if !res.Success {
		return nil, fmt.Errorf("update order %s: %w: %s", orderID, domain.ErrRejected, res.Message)
	}
	return res.Order, nil
}

func (s *OrderService) AddItem(ctx context.Context, sess *domain.AuthSession, orderID string, item domain.OrderItem) (*domain.Order, error) {
	fields := map[string]string{}
	if item.ProductName == "" {
		fields["product_name"] = "Product name is required"
	}
	if item.Quantity <= 0 {
		fields["quantity"] = "Quantity must be positive"
	}
	if item.UnitPrice < 0 {
		fields["unit_price"] = "Unit price must not be negative"
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	res, err := s.backend(sess).AddItemToOrder(ctx, orderID, item)
	if err != nil {
		return nil, fmt.Errorf("add item to order %s: %w", orderID, err)
	}
	if !res.Success {
		return nil, fmt.Errorf("add item to order %s: %w: %s", orderID, domain.ErrRejected, res.Message)
	}
	return res.Order, nil
}

func (s *OrderService) Delete(ctx context.Context, sess *domain.AuthSession, orderID string) error {
	res, err := s.backend(sess).DeleteOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("delete order %s: %w", orderID, err)
	}
	if !res.Success {
		return fmt.Errorf("delete order %s: %w: %s", orderID, domain.ErrRejected, res.Message)
	}
	return nil
}

func ordersOf(res *domain.OrderList) []domain.Order {
	if !res.Success || res.Orders == nil {
		return []domain.Order{}
	}
	return res.Orders
}
