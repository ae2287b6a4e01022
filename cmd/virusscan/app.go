package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ATenderholt/s3-virusscan/internal/service"
	"github.com/ATenderholt/s3-virusscan/internal/settings"
)

const shutdownTimeout = 2 * time.Minute

type App struct {
	cfg      *settings.Config
	pipeline *service.Pipeline
	done     chan struct{}
}

func NewApp(cfg *settings.Config, pipeline *service.Pipeline) App {
	return App{
		cfg:      cfg,
		pipeline: pipeline,
		done:     make(chan struct{}),
	}
}

// Start connects to the queue and begins polling until ctx is cancelled.
// Cancelling ctx while connecting is not an error.
func (app App) Start(ctx context.Context) error {
	err := app.pipeline.Connect(ctx)
	if err != nil && ctx.Err() != nil {
		logger.Info("Shutdown requested before the queue was reachable")
		close(app.done)
		return nil
	} else if err != nil {
		return err
	}

	go func() {
		defer close(app.done)
		app.pipeline.Run(ctx)
	}()

	return nil
}

// Shutdown waits for in-flight messages to finish.
func (app App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	select {
	case <-app.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("in-flight messages did not finish within %v: %w", shutdownTimeout, ctx.Err())
	}
}
