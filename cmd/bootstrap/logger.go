package bootstrap

import (
	"log/slog"
	"os"
	"strings"

	"voltshare/internal/pkg/config"

	"go.uber.org/fx"
)

var LoggerModule = fx.Module("logger",
	fx.Provide(
		NewLogger,
	),
)

// NewLogger builds the logger handed to components that take an explicit
// *slog.Logger (the payment gateway, the overstay monitor). Request logging
// installs the process default on its own; this one only has to agree on
// LOG_LEVEL.
func NewLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
