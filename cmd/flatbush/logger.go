// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger wraps slog.Logger with the field names used by every flatbush
// subcommand.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger writing to w. format is "text" or "json",
// and level is one of "debug", "info", "warn" or "error".
func NewLogger(w io.Writer, format, level string) (*Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	return &Logger{
		Logger: slog.New(handler),
	}, nil
}

// WithFile adds a file field to the logger.
func (l *Logger) WithFile(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("file", path),
	}
}

// LogSkippedRow logs a malformed input row that was left out of an index.
func (l *Logger) LogSkippedRow(ctx context.Context, line int, err error) {
	l.WarnContext(ctx, "skipped row",
		"line", line,
		"error", err,
	)
}

// LogBuild logs the outcome of building an index.
func (l *Logger) LogBuild(ctx context.Context, rows, items, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"rows", rows,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "build completed",
			"rows", rows,
			"items", items,
			"bytes", size,
		)
	}
}

// LogQuery logs the outcome of a search or neighbors query.
func (l *Logger) LogQuery(ctx context.Context, op string, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, op+" failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, op+" completed",
			"results", results,
		)
	}
}
