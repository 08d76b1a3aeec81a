// Package logger wraps zap construction so the rest of the
// application receives a configured *zap.Logger.
package logger

import (
	"go.uber.org/zap"
)

// Logger holds the application-wide zap logger.
type Logger struct {
	// Log is the configured zap logger. Valid after Init.
	Log *zap.Logger
}

// New returns an uninitialized Logger with a no-op zap logger so
// callers can log safely before Init runs.
func New() *Logger {
	return &Logger{Log: zap.NewNop()}
}

// Init configures the logger at the given level ("Debug", "Info",
// "Warn", "Error"). Unknown levels fall back to Info.
func (l *Logger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl

	log, err := cfg.Build()
	if err != nil {
		return err
	}
	l.Log = log
	return nil
}
