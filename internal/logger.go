package internal

import (
	"io"
	"log/slog"
	"time"
)

// NewLogger builds the process logger. Production runs emit JSON with
// RFC3339Nano timestamps for the log pipeline; everything else gets the
// text handler. An unknown level falls back to info.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	lv := new(slog.LevelVar) // info unless overridden
	switch level {
	case "debug":
		lv.Set(slog.LevelDebug)
	case "warn":
		lv.Set(slog.LevelWarn)
	case "error":
		lv.Set(slog.LevelError)
	case "info":
	default:
		slog.Default().Warn("unknown log level, using info", slog.String("value", level))
	}

	if env == "prod" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: lv,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.String("time", a.Value.Time().Format(time.RFC3339Nano))
				}
				return a
			},
		}))
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv}))
}
