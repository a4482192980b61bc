// Package logger builds the process-wide zap logger from the configured
// environment.
package logger

import (
	"go.uber.org/zap"

	"github.com/strumscan/scan-server/internal/config"
)

func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if cfg.Environment == "prod" {
		l, err = zap.NewProduction()
	} else if cfg.Environment == "test" {
		l = zap.NewExample()
	} else {
		l, err = zap.NewDevelopment()
	}

	return l, err
}
