package cli

import (
	"log/slog"
	"os"

	"github.com/veridraft/veridraft/internal/model"
)

// setupLogging configures the default slog logger from the output settings.
// Verbose forces debug regardless of the configured level.
func setupLogging(cfg model.OutputConfig) {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
