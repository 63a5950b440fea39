package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/custodia-wallet-engine/internal/config"
)

// NewLogger builds the process-wide JSON logger. Every line carries the
// application name so engine logs can be filtered out of shared pipelines.
func NewLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Source locations only at debug; they are noise in production logs
		AddSource: level == slog.LevelDebug,
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, opts)).
		With("app", cfg.Application.Name)

	logger.Info("logger initialized", "level", level, "env", cfg.Application.Env)

	return logger
}
