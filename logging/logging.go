// Package logging builds the logr.Logger used across the module, backed by zap.
package logging

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configure New.
type Options struct {
	// Verbosity is the highest logr V-level that is written. 0 logs Info only.
	Verbosity int
	// Development switches to the human readable console encoder.
	Development bool
}

// New returns a logger writing JSON (or console output in development mode)
// to stderr, named after component.
func New(component string, opts Options) (logr.Logger, error) {
	if opts.Verbosity < 0 {
		return logr.Discard(), fmt.Errorf("logging: invalid verbosity %d", opts.Verbosity)
	}

	cfg := zap.NewProductionConfig()
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	// logr V(n) maps to zap level -n.
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-opts.Verbosity))
	cfg.Sampling = nil

	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), fmt.Errorf("failed to build zap logger: %w", err)
	}

	return zapr.NewLogger(zl).WithName(component), nil
}

// FromZap wraps an existing zap logger.
func FromZap(zl *zap.Logger, component string) logr.Logger {
	return zapr.NewLogger(zl).WithName(component)
}
