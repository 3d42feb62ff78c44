package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds a zap logger for the given environment. Local and dev
// environments get the human-readable development config, everything else
// gets production JSON output.
func NewLogger(env string) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	switch env {
	case "local", "dev", "development":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}
