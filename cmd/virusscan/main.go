package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ATenderholt/s3-virusscan/internal/logging"
	"github.com/ATenderholt/s3-virusscan/internal/settings"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

var logger *zap.SugaredLogger

func init() {
	logger = logging.NewLogger()
}

func main() {
	cfg, output, err := settings.FromFlags(os.Args[0], os.Args[1:])
	if err == flag.ErrHelp {
		fmt.Println(output)
		os.Exit(2)
	} else if err != nil {
		fmt.Println("got error:", err)
		fmt.Println("output:\n", output)
		os.Exit(1)
	}

	logging.SetDebug(cfg.IsDebug)
	limitProcs()

	mainCtx := context.Background()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(mainCtx)
	go func() {
		s := <-c
		logger.Infof("Received signal %v", s)
		cancel()
	}()

	if err := start(ctx, cfg); err != nil {
		logger.Errorf("Failed to start: %v", err)
		os.Exit(1)
	}
}

func limitProcs() func() {
	undo, err := maxprocs.Set(maxprocs.Logger(logger.Debugf))
	if err != nil {
		logger.Warnf("Unable to set GOMAXPROCS from CPU quota: %v", err)
	}
	return undo
}

func start(ctx context.Context, config *settings.Config) error {
	logger.Info("s3-virusscan starting ...")

	app, err := InjectApp(config)
	if err != nil {
		logger.Errorf("Unable to initialize application: %v", err)
		return err
	}

	err = app.Start(ctx)
	if err != nil {
		logger.Errorf("Unable to start application: %v", err)
		return err
	}

	logger.Info("s3-virusscan started")
	<-ctx.Done()

	logger.Info("Shutting down ...")
	err = app.Shutdown()
	if err != nil {
		logger.Errorf("Error when shutting down app: %v", err)
	}

	return nil
}
