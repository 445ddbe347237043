package temporaladapter_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"

	temporaladapter "github.com/krishisahayak/krishi/internal/adapters/temporal"
	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/pkg/logging"
	"github.com/krishisahayak/krishi/internal/workflows"
)

func startOptions(id, queue string) interface{} {
	return mock.MatchedBy(func(o client.StartWorkflowOptions) bool {
		return o.ID == id && o.TaskQueue == queue
	})
}

func TestStarter_StartsWorkflowPerLand(t *testing.T) {
	c := mocks.NewClient(t)
	run := mocks.NewWorkflowRun(t)
	run.On("GetID").Return("land-followup-17")
	run.On("GetRunID").Return("run-1")

	in := domain.LandFollowUp{Token: "tok", UserID: "42", LandID: "17", PolygonID: "poly-17", RegistrationID: "reg-1"}
	c.On("ExecuteWorkflow", mock.Anything, startOptions("land-followup-17", "land-onboarding"),
		workflows.FollowUpWorkflowName, in).Return(run, nil).Once()

	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), logging.New(&buf, "info", "json"))

	s := temporaladapter.NewStarter(c, "land-onboarding")
	if err := s.StartLandFollowUp(ctx, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "land follow-up started") || !strings.Contains(buf.String(), "run-1") {
		t.Errorf("expected start to be logged through the context logger, got %q", buf.String())
	}
}

func TestStarter_WithoutLandIDUsesRegistration(t *testing.T) {
	c := mocks.NewClient(t)
	run := mocks.NewWorkflowRun(t)
	run.On("GetID").Return("land-followup-reg-reg-9")
	run.On("GetRunID").Return("run-9")

	in := domain.LandFollowUp{Token: "tok", UserID: "42", RegistrationID: "reg-9"}
	c.On("ExecuteWorkflow", mock.Anything, startOptions("land-followup-reg-reg-9", "q"),
		workflows.FollowUpWorkflowName, in).Return(run, nil).Once()

	if err := temporaladapter.NewStarter(c, "q").StartLandFollowUp(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStarter_RejectsFollowUpWithoutIDs(t *testing.T) {
	c := mocks.NewClient(t)
	err := temporaladapter.NewStarter(c, "q").StartLandFollowUp(context.Background(), domain.LandFollowUp{Token: "tok", UserID: "42"})
	if err == nil {
		t.Fatal("expected an error for a follow-up without ids")
	}
	c.AssertNotCalled(t, "ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStarter_WrapsClientError(t *testing.T) {
	c := mocks.NewClient(t)
	boom := errors.New("frontend unavailable")
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, boom).Once()

	err := temporaladapter.NewStarter(c, "q").StartLandFollowUp(context.Background(), domain.LandFollowUp{LandID: "17"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
	if !strings.Contains(err.Error(), "land-followup-17") {
		t.Errorf("expected workflow id in error, got %v", err)
	}
}
