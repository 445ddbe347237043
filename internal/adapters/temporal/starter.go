// Package temporaladapter starts follow-up workflows on a Temporal cluster.
package temporaladapter

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/client"

	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/ports"
	"github.com/krishisahayak/krishi/internal/pkg/logging"
	"github.com/krishisahayak/krishi/internal/workflows"
)

// Starter implements ports.WorkflowStarter.
type Starter struct {
	client    client.Client
	taskQueue string
}

var _ ports.WorkflowStarter = (*Starter)(nil)

// NewStarter wraps an existing Temporal client.
func NewStarter(c client.Client, taskQueue string) *Starter {
	return &Starter{client: c, taskQueue: taskQueue}
}

// StartLandFollowUp starts the follow-up for a land. Starting it again for the
// same land while it runs is a no-op.
func (s *Starter) StartLandFollowUp(ctx context.Context, in domain.LandFollowUp) error {
	if in.LandID == "" && in.RegistrationID == "" {
		return errors.New("land follow-up needs a land or registration id")
	}
	opts := client.StartWorkflowOptions{
		ID:        workflows.FollowUpID(in.Key()),
		TaskQueue: s.taskQueue,
	}
	run, err := s.client.ExecuteWorkflow(ctx, opts, workflows.FollowUpWorkflowName, in)
	if err != nil {
		return fmt.Errorf("start %s: %w", opts.ID, err)
	}
	logging.FromContext(ctx).Info("land follow-up started", "workflow_id", run.GetID(), "run_id", run.GetRunID())
	return nil
}

// Dial connects to Temporal.
func Dial(hostPort, namespace string) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("temporal client: %w", err)
	}
	return c, nil
}
