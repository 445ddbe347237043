package usecases

import (
	"context"
	"fmt"

	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/ports"
)

// DashboardService assembles the farmer's home screen and places orders for
// recommended inputs.
type DashboardService struct {
	backend ports.BackendFactory
}

func NewDashboardService(backend ports.BackendFactory) *DashboardService {
	return &DashboardService{backend: backend}
}

// Load runs the analysis and fetches the order history. An unsuccessful
// analysis leaves the analysis fields empty; a failed call fails the load.
func (s *DashboardService) Load(ctx context.Context, sess *domain.AuthSession) (*domain.Dashboard, error) {
	api := s.backend(sess)
	d := &domain.Dashboard{
		Recommendations: []domain.Recommendation{},
		Orders:          []domain.Order{},
	}

	analysis, err := api.AnalyzeAndOrder(ctx, sess.UserID())
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	if analysis.Success {
		d.Analysis = analysis.Analysis
		if o := analysis.Ordering; o != nil {
			d.Automated = o.Automated
			if o.OrderReadyRecommendations != nil {
				d.Recommendations = o.OrderReadyRecommendations
			}
		}
	}

	history, err := api.GetOrderHistory(ctx, sess.UserID())
	if err != nil {
		return nil, fmt.Errorf("order history: %w", err)
	}
	if history.Success && history.Orders != nil {
		d.Orders = history.Orders
	}
	return d, nil
}

// PlaceOrder orders the product of a single recommendation.
func (s *DashboardService) PlaceOrder(ctx context.Context, sess *domain.AuthSession, rec domain.Recommendation) (*domain.OrderResult, error) {
	if rec.Product == "" {
		return nil, &domain.ValidationError{Fields: map[string]string{"product": "Product is required"}}
	}
	if rec.Quantity <= 0 {
		return nil, &domain.ValidationError{Fields: map[string]string{"quantity": "Quantity must be positive"}}
	}
	res, err := s.backend(sess).CreateOrder(ctx, domain.OrderFor(sess.UserID(), rec))
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if !res.Success {
		return nil, fmt.Errorf("create order: %w: %s", domain.ErrRejected, res.Message)
	}
	return res, nil
}

// Recommendations returns the current input recommendations.
func (s *DashboardService) Recommendations(ctx context.Context, sess *domain.AuthSession) ([]domain.Recommendation, error) {
	res, err := s.backend(sess).GetRecommendations(ctx, sess.UserID())
	if err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}
	if !res.Success {
		return nil, fmt.Errorf("recommendations: %w: %s", domain.ErrRejected, res.Message)
	}
	return res.Recommendations, nil
}

// ExecuteOrdering orders every given recommendation at once. With none given,
// the current recommendations are used.
func (s *DashboardService) ExecuteOrdering(ctx context.Context, sess *domain.AuthSession, recs []domain.Recommendation) (*domain.OrderingResult, error) {
	if len(recs) == 0 {
		var err error
		if recs, err = s.Recommendations(ctx, sess); err != nil {
			return nil, err
		}
	}
	if len(recs) == 0 {
		return &domain.OrderingResult{Success: true, Message: "nothing to order", Orders: []domain.Order{}}, nil
	}
	res, err := s.backend(sess).ExecuteOrdering(ctx, sess.UserID(), recs)
	if err != nil {
		return nil, fmt.Errorf("execute ordering: %w", err)
	}
	return res, nil
}
