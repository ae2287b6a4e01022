package main

import (
	"github.com/ATenderholt/s3-virusscan/internal/domain"
	"github.com/ATenderholt/s3-virusscan/internal/service"
	"github.com/ATenderholt/s3-virusscan/internal/settings"
)

func NewPolicy(cfg *settings.Config) domain.Policy {
	return cfg.Policy()
}

func NewKeyFilter(cfg *settings.Config) domain.Filter {
	return cfg.KeyFilter()
}

func NewPollOptions(cfg *settings.Config) service.PollOptions {
	return service.PollOptions{
		Workers:           cfg.Workers,
		BatchSize:         int32(cfg.BatchSize),
		WaitTime:          int32(cfg.WaitTime),
		VisibilityTimeout: int32(cfg.VisibilityTimeout),
		ConnectTimeout:    service.DefaultConnectTimeout,
	}
}
