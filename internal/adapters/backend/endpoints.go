package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/krishisahayak/krishi/internal/core/domain"
)

// --- Authentication ---

func (c *Client) Signup(ctx context.Context, form domain.SignupForm) (*domain.AuthResult, error) {
	var out domain.AuthResult
	if err := c.do(ctx, "signup", http.MethodPost, "/user/signup", form.Request(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Signin(ctx context.Context, identifier, password string) (*domain.AuthResult, error) {
	body := map[string]string{"identifier": identifier, "password": password}
	var out domain.AuthResult
	if err := c.do(ctx, "signin", http.MethodPost, "/user/signin", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Land ---

func (c *Client) AddLand(ctx context.Context, req domain.LandRequest) (*domain.LandResult, error) {
	var out domain.LandResult
	if err := c.do(ctx, "add_land", http.MethodPost, "/land/add", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetLand(ctx context.Context, userID string) (*domain.LandList, error) {
	var out domain.LandList
	if err := c.do(ctx, "get_land", http.MethodGet, "/land/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSatelliteData(ctx context.Context, polygonID string) (*domain.SatelliteResult, error) {
	body := map[string]string{"polygonId": polygonID}
	var out domain.SatelliteResult
	if err := c.do(ctx, "satellite", http.MethodPost, "/satellite/get", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Agentic ---

func (c *Client) AnalyzeAndOrder(ctx context.Context, userID string) (*domain.AnalysisResult, error) {
	body := map[string]string{"userId": userID}
	var out domain.AnalysisResult
	if err := c.do(ctx, "analyze_and_order", http.MethodPost, "/agentic/analyze-and-order", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetRecommendations(ctx context.Context, userID string) (*domain.RecommendationList, error) {
	var out domain.RecommendationList
	path := "/agentic/recommendations/" + url.PathEscape(userID)
	if err := c.do(ctx, "recommendations", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ExecuteOrdering(ctx context.Context, userID string, recs []domain.Recommendation) (*domain.OrderingResult, error) {
	body := struct {
		UserID          string                  `json:"userId"`
		Recommendations []domain.Recommendation `json:"recommendations"`
	}{UserID: userID, Recommendations: recs}
	var out domain.OrderingResult
	if err := c.do(ctx, "execute_ordering", http.MethodPost, "/agentic/execute-ordering", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetOrderHistory(ctx context.Context, userID string) (*domain.OrderList, error) {
	var out domain.OrderList
	path := "/agentic/order-history/" + url.PathEscape(userID)
	if err := c.do(ctx, "order_history", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Orders ---

func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	var out domain.OrderResult
	if err := c.do(ctx, "create_order", http.MethodPost, "/orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*domain.OrderResult, error) {
	var out domain.OrderResult
	if err := c.do(ctx, "get_order", http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUserOrders(ctx context.Context, userID string) (*domain.OrderList, error) {
	var out domain.OrderList
	if err := c.do(ctx, "user_orders", http.MethodGet, "/orders/user/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID, status string) (*domain.OrderResult, error) {
	body := map[string]string{"status": status}
	var out domain.OrderResult
	path := "/orders/" + url.PathEscape(orderID) + "/status"
	if err := c.do(ctx, "update_order_status", http.MethodPut, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddItemToOrder(ctx context.Context, orderID string, item domain.OrderItem) (*domain.OrderResult, error) {
	var out domain.OrderResult
	path := "/orders/" + url.PathEscape(orderID) + "/items"
	if err := c.do(ctx, "add_order_item", http.MethodPost, path, item, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteOrder(ctx context.Context, orderID string) (*domain.Ack, error) {
	var out domain.Ack
	if err := c.do(ctx, "delete_order", http.MethodDelete, "/orders/"+url.PathEscape(orderID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
