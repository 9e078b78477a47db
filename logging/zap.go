package logging

import (
	"go.uber.org/zap"
)

// ZapLogger adapts *zap.SugaredLogger to the Logger interface. Key/value
// pairs map directly onto zap's sugared *w variants.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger creates a Logger backed by the given zap logger.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: logger.Sugar()}
}

// NewZapProduction creates a Logger backed by zap's production config.
func NewZapProduction() (*ZapLogger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(logger), nil
}

// Debug logs a debug message.
func (z *ZapLogger) Debug(msg string, args ...any) { z.sugar.Debugw(msg, args...) }

// Info logs an informational message.
func (z *ZapLogger) Info(msg string, args ...any) { z.sugar.Infow(msg, args...) }

// Warn logs a warning message.
func (z *ZapLogger) Warn(msg string, args ...any) { z.sugar.Warnw(msg, args...) }

// Error logs an error message.
func (z *ZapLogger) Error(msg string, args ...any) { z.sugar.Errorw(msg, args...) }

// Sync flushes buffered entries. Call before process exit.
func (z *ZapLogger) Sync() error {
	return z.sugar.Sync()
}

var _ Logger = (*ZapLogger)(nil)
