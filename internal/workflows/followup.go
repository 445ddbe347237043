package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/krishisahayak/krishi/internal/core/domain"
)

// FollowUpWorkflowName is the registered name of LandFollowUpWorkflow.
const FollowUpWorkflowName = "LandFollowUpWorkflow"

// FollowUpID is the workflow id for a follow-up key (see
// domain.LandFollowUp.Key), so a land is followed up once.
func FollowUpID(key string) string {
	return "land-followup-" + key
}

// LandFollowUpWorkflow prepares a freshly registered land: it fetches satellite
// imagery for the polygon and then requests the first analysis. A satellite
// failure does not stop the analysis.
func LandFollowUpWorkflow(ctx workflow.Context, input domain.LandFollowUp) (AnalysisSummary, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting land follow-up", "landId", input.LandID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: satellite imagery
	if input.PolygonID != "" {
		err := workflow.ExecuteActivity(ctx, ActivityFetchSatelliteData, input.Token, input.PolygonID).Get(ctx, nil)
		if err != nil {
			logger.Warn("satellite fetch failed, continuing", "polygonId", input.PolygonID, "error", err)
		}
	}

	// Step 2: analysis
	var sum AnalysisSummary
	err := workflow.ExecuteActivity(ctx, ActivityRequestAnalysis, input.Token, input.UserID).Get(ctx, &sum)
	if err != nil {
		return AnalysisSummary{}, err
	}

	logger.Info("Land follow-up done", "landId", input.LandID, "recommendations", sum.Recommendations)
	return sum, nil
}
