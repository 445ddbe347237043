package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/worker"

	"github.com/krishisahayak/krishi/internal/adapters/backend"
	natsadapter "github.com/krishisahayak/krishi/internal/adapters/nats"
	temporaladapter "github.com/krishisahayak/krishi/internal/adapters/temporal"
	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/pkg/config"
	"github.com/krishisahayak/krishi/internal/pkg/logging"
	"github.com/krishisahayak/krishi/internal/workflows"
)

func main() {
	cfg, err := config.Load("krishi-onboarder")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to Temporal
	c, err := temporaladapter.Dial(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.LandFollowUpWorkflow)
	w.RegisterActivity(&workflows.LandActivities{
		Backend: backend.Factory(backend.Config{BaseURL: cfg.Backend.URL}),
	})

	// Each registered land starts its follow-up
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer sub.Close()

	starter := temporaladapter.NewStarter(c, cfg.Temporal.TaskQueue)
	err = sub.SubscribeLandRegistered(ctx, func(ctx context.Context, ev *domain.LandRegistered) error {
		return starter.StartLandFollowUp(ctx, ev.FollowUp())
	})
	if err != nil {
		log.Fatalf("subscribe land registrations: %v", err)
	}

	slog.Info("onboarder worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
