package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options select the handler and level; empty fields fall back to
// environment-aware defaults.
type Options struct {
	Level      string
	Format     string
	Production bool
	AddSource  bool
}

// Setup configures the global structured logger and returns it.
func Setup(opts Options) *slog.Logger {
	logger := New(os.Stdout, opts)
	slog.SetDefault(logger)
	return logger
}

func New(w io.Writer, opts Options) *slog.Logger {
	return slog.New(handler(w, opts))
}

func handler(w io.Writer, opts Options) slog.Handler {
	ho := &slog.HandlerOptions{
		Level:     level(opts),
		AddSource: opts.AddSource,
	}

	format := strings.ToLower(opts.Format)
	if format == "" {
		if opts.Production {
			format = "json"
		} else {
			format = "pretty"
		}
	}

	switch format {
	case "json":
		return slog.NewJSONHandler(w, ho)
	case "pretty":
		ho.ReplaceAttr = func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String("time", a.Value.Time().Format("15:04:05.000"))
			}
			return a
		}
		return slog.NewTextHandler(w, ho)
	default:
		return slog.NewTextHandler(w, ho)
	}
}

func level(opts Options) slog.Level {
	lvl := opts.Level
	if lvl == "" {
		if opts.Production {
			lvl = "INFO"
		} else {
			lvl = "DEBUG"
		}
	}

	switch strings.ToUpper(lvl) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything; used by tests and tools.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
