package domain

// OrderItem is a line of an order.
type OrderItem struct {
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Order is an input order placed with the backend.
type Order struct {
	OrderID     ID          `json:"order_id"`
	Status      string      `json:"status,omitempty"`
	TotalAmount float64     `json:"total_amount,omitempty"`
	CreatedAt   string      `json:"created_at,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	Items       []OrderItem `json:"items,omitempty"`
}

// OrderRequest is the create-order body.
type OrderRequest struct {
	UserID string      `json:"userId"`
	Items  []OrderItem `json:"items"`
	Notes  string      `json:"notes,omitempty"`
}

// OrderFor builds the order for a single recommendation.
func OrderFor(userID string, rec Recommendation) OrderRequest {
	return OrderRequest{
		UserID: userID,
		Items: []OrderItem{{
			ProductName: rec.Product,
			Quantity:    rec.Quantity,
			UnitPrice:   rec.EstimatedCost,
		}},
		Notes: "Ordered via: " + rec.Reason,
	}
}

// OrderResult is the single-order response envelope.
type OrderResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Order   *Order `json:"order,omitempty"`
}

// OrderList is the order-listing response envelope.
type OrderList struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	Orders  []Order `json:"orders"`
}

// Ack is a bare success envelope.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
