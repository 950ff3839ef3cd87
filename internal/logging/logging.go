// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package logging installs the process-wide slog logger. Call sites use the
// standard log/slog API; the handler underneath is charmbracelet/log, which
// prints colourised text in development and JSON everywhere else.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// Options controls how Setup builds the handler.
type Options struct {
	Level  string // debug, info, warn, error
	JSON   bool
	Output io.Writer
}

// New builds a slog.Logger backed by a charmbracelet handler.
// Unknown levels fall back to info.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	level, err := charmlog.ParseLevel(opts.Level)
	if err != nil {
		level = charmlog.InfoLevel
	}

	handler := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
	})
	if opts.JSON {
		handler.SetFormatter(charmlog.JSONFormatter)
	} else {
		handler.SetFormatter(charmlog.TextFormatter)
	}

	return slog.New(handler)
}

// Setup builds the logger and installs it as the slog default.
func Setup(level string, json bool) *slog.Logger {
	logger := New(Options{Level: level, JSON: json})
	slog.SetDefault(logger)
	return logger
}
