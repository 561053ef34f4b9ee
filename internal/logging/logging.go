// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the run logger. Each command constructs its own
// logger and passes it explicitly into the components that need it; there is
// no package-level logger state.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// New returns a logger writing to stderr and, when cfg.File is set, to the
// log file as well. The returned closer releases the file handle and is safe
// to call when no file was opened.
func New(cfg types.LogConfig) (*logrus.Logger, func() error, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(ParseLevel(cfg.Level))

	closer := func() error { return nil }
	out := io.Writer(os.Stderr)
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file %s: %w", cfg.File, err)
		}
		out = io.MultiWriter(os.Stderr, f)
		closer = f.Close
	}
	log.SetOutput(out)

	return log, closer, nil
}

// ParseLevel maps a level name to a logrus level, defaulting to info for
// unrecognized names.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Discard returns a logger that swallows all output. Tests hand it to
// components that require a logger.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
