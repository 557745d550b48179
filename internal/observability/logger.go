package observability

import (
	"io"
	"log/slog"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/weather-lookup/internal/config"
)

// NewLogger creates the service logger on stdout and installs it as the slog
// default.
func NewLogger(cfg config.Logging) *slog.Logger {
	return sharedobs.NewLogger(cfg.Level, cfg.Format)
}

// NewWriterLogger builds a structured logger writing to w without touching
// the slog default. The terminal client uses it so that nothing is written
// to the screen the UI owns. Unknown levels fall back to info; any format
// other than "text" yields JSON.
func NewWriterLogger(w io.Writer, cfg config.Logging) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

// NewDiscardLogger returns a logger that drops everything.
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
