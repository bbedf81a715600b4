package internal

import (
	"io"
	"log/slog"
	"time"
)

// NewLogger builds the process logger. Production emits JSON with
// RFC3339Nano timestamps for the log pipeline; everything else gets the
// human-readable text handler.
func NewLogger(w io.Writer, env, level string) *slog.Logger {
	lvl := new(slog.LevelVar) // info unless told otherwise
	switch level {
	case "debug":
		lvl.Set(slog.LevelDebug)
	case "warn":
		lvl.Set(slog.LevelWarn)
	case "error":
		lvl.Set(slog.LevelError)
	case "info":
	default:
		slog.Default().Warn("Unknown log level. Using default level: info", slog.String("value", level))
	}

	if env == "prod" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: lvl,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339Nano))
				}
				return a
			},
		}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
