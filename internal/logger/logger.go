// Package logger wraps zap construction behind a small initialization API.
package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Logger holds the application logger.
type Logger struct {
	// Log is the underlying zap logger. Safe to use before Init; it is a
	// no-op logger until then.
	Log *zap.Logger
}

// New returns a Logger that discards everything until Init is called.
func New() *Logger {
	return &Logger{Log: zap.NewNop()}
}

// Init builds the production logger at the given level ("Debug", "Info",
// "Warn", "Error").
func (l *Logger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err != nil {
		return err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	l.Log = logger
	return nil
}
