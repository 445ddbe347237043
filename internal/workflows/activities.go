package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/ports"
	"github.com/krishisahayak/krishi/internal/pkg/logging"
)

// Activity names, as registered on the worker.
const (
	ActivityFetchSatelliteData = "FetchSatelliteData"
	ActivityRequestAnalysis    = "RequestAnalysis"
)

// AnalysisSummary is what RequestAnalysis reports back to the workflow.
type AnalysisSummary struct {
	Recommendations int  `json:"recommendations"`
	AutoOrdered     bool `json:"auto_ordered"`
}

// LandActivities call the backend on the registering farmer's behalf.
type LandActivities struct {
	Backend ports.BackendFactory
}

func (a *LandActivities) client(token, userID string) ports.Backend {
	return a.Backend(&domain.AuthSession{Token: token, User: domain.User{ID: domain.ID(userID)}})
}

// FetchSatelliteData warms the backend's imagery for a newly registered polygon.
func (a *LandActivities) FetchSatelliteData(ctx context.Context, token, polygonID string) error {
	res, err := a.client(token, "").GetSatelliteData(ctx, polygonID)
	if err != nil {
		return fmt.Errorf("satellite data for %s: %w", polygonID, err)
	}
	if !res.Success {
		return fmt.Errorf("satellite data for %s: %s", polygonID, res.Message)
	}
	logging.FromContext(ctx).Info("satellite data fetched", "polygon_id", polygonID)
	return nil
}

// RequestAnalysis runs the agentic analysis so the dashboard is ready on first visit.
func (a *LandActivities) RequestAnalysis(ctx context.Context, token, userID string) (AnalysisSummary, error) {
	res, err := a.client(token, userID).AnalyzeAndOrder(ctx, userID)
	if err != nil {
		return AnalysisSummary{}, fmt.Errorf("analysis for user %s: %w", userID, err)
	}
	if !res.Success {
		return AnalysisSummary{}, errors.New("analysis rejected: " + res.Message)
	}

	var sum AnalysisSummary
	if res.Ordering != nil {
		sum.Recommendations = len(res.Ordering.OrderReadyRecommendations)
		sum.AutoOrdered = res.Ordering.Automated != nil && res.Ordering.Automated.Success
	}
	return sum, nil
}
