package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
)

// newLogger returns a slog logger writing to path at level. With no path
// logging is discarded: the TUI owns the terminal. The returned func closes
// the log file.
func newLogger(path, level string) (*slog.Logger, func() error, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	if path == "" {
		return slog.New(slog.DiscardHandler), func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	handler := log.NewWithOptions(f, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		Prefix:          "pitch",
	})
	return slog.New(handler), f.Close, nil
}
