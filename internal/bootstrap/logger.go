package bootstrap

import (
	"callsync/internal/config"

	"go.uber.org/zap"
)

// NewLogger returns a JSON production logger in production and the
// colourised development logger everywhere else.
func NewLogger(cfg config.AppConfig) (*zap.Logger, error) {
	if cfg.Env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
