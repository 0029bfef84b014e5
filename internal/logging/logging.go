package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// Options selects handlers and levels.
type Options struct {
	Level  slog.Level
	Format string // "text" or "json"
	// File, when set, receives every record at debug level as JSON.
	File string
}

// New builds a logger writing to w and, if opts.File is set, to that file.
// The returned close function releases the file.
func New(w io.Writer, opts Options) (*slog.Logger, func() error, error) {
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	var primary slog.Handler
	switch opts.Format {
	case "", "text":
		primary = slog.NewTextHandler(w, handlerOpts)
	case "json":
		primary = slog.NewJSONHandler(w, handlerOpts)
	default:
		return nil, nil, fmt.Errorf("unknown log format: %s", opts.Format)
	}

	if opts.File == "" {
		return slog.New(primary), func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := slog.New(slogmulti.Fanout(
		primary,
		slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}),
	))
	return logger, f.Close, nil
}

// Setup builds the logger for the CLI and installs it as the slog default.
func Setup(w io.Writer, opts Options) (func() error, error) {
	logger, closeFn, err := New(w, opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return closeFn, nil
}
