// Package logging configures structured logging for log/slog.
//
// Usage:
//
//	logger := logging.New(os.Stderr, logging.Options{Level: slog.LevelDebug})
//	slog.SetDefault(logger)
//
// Text output is colored by tint and carries source locations. JSON output
// uses the standard library handler and is meant for log shippers.
package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options configures New.
type Options struct {
	Level slog.Level

	// Format is FormatText (default) or FormatJSON.
	Format string

	// NoColor disables ANSI colors in text output.
	NoColor bool
}

// New returns a logger writing to w.
func New(w io.Writer, opts Options) *slog.Logger {
	if opts.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     opts.Level,
			AddSource: true,
		}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      opts.Level,
		TimeFormat: time.Kitchen,
		AddSource:  true,
		NoColor:    opts.NoColor,
	}))
}

// Setup configures the default logger and returns it.
func Setup(w io.Writer, opts Options) *slog.Logger {
	logger := New(w, opts)
	slog.SetDefault(logger)
	return logger
}
