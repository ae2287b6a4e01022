package service

import (
	"github.com/ATenderholt/s3-virusscan/internal/logging"
	"go.uber.org/zap"
)

var logger *zap.SugaredLogger

func init() {
	logger = logging.NewLogger().Named("service")
}
