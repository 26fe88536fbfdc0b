package main

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/hanabi-drive/hanabi/config"
)

// setupLogging installs the process logger: JSON lines on stdout in production,
// colored tint output on stderr otherwise. The standard log package is routed
// through the same handler.
func setupLogging(cfg *config.Config) {
	var h slog.Handler
	if cfg.IsProd() {
		h = jsonHandler(os.Stdout, parseLevel(cfg.Log.Level))
	} else {
		h = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      parseLevel(cfg.Log.Level),
			AddSource:  true,
			TimeFormat: time.TimeOnly,
		})
	}

	logger := slog.New(h).With("app", "hanabi", "env", cfg.Env)
	slog.SetDefault(logger)

	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(logger.Handler(), slog.LevelWarn).Writer())
}

// jsonHandler writes UTC timestamps under "ts" so log shippers need no remapping.
func jsonHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	})
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
