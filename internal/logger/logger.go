// Package logger configures the process-wide slog logger.
package logger

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// New builds a colorized slog logger for dev and a plainer one for prod.
// The returned logger is also installed as the slog default.
func New(env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
		NoColor:    env == "prod",
	}))
	slog.SetDefault(log)
	return log
}
