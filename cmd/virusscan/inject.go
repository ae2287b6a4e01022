//go:build wireinject
// +build wireinject

package main

import (
	"github.com/ATenderholt/s3-virusscan/internal/service"
	"github.com/ATenderholt/s3-virusscan/internal/settings"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/wire"
)

var clients = wire.NewSet(
	NewAWSConfig,
	NewSQSClient,
	NewS3Client,
	NewSNSClient,
	wire.Bind(new(service.QueueClient), new(*sqs.Client)),
	wire.Bind(new(service.ObjectStore), new(*s3.Client)),
	wire.Bind(new(service.NotificationClient), new(*sns.Client)),
)

var scanning = wire.NewSet(
	NewPolicy,
	NewKeyFilter,
	NewPollOptions,
	wire.Bind(new(service.StagingConfig), new(*settings.Config)),
	wire.Bind(new(service.ScannerConfig), new(*settings.Config)),
	service.NewStager,
	wire.Bind(new(service.ObjectStager), new(*service.Stager)),
	service.NewClamScanner,
	wire.Bind(new(service.Scanner), new(*service.ClamScanner)),
	service.NewNotificationService,
	wire.Bind(new(service.Publisher), new(*service.NotificationService)),
	service.NewDispatcher,
	wire.Bind(new(service.VerdictDispatcher), new(*service.Dispatcher)),
	service.NewPipeline,
)

func InjectApp(cfg *settings.Config) (App, error) {
	wire.Build(
		NewApp,
		clients,
		scanning,
	)
	return App{}, nil
}
