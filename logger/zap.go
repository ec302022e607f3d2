package logger

import (
	"go.uber.org/zap"

	"blockframe"
)

// Zap wraps a zap.Logger to implement blockframe.Logger.
type Zap struct {
	logger *zap.Logger
}

// NewZap creates a blockframe.Logger from a zap.Logger.
func NewZap(logger *zap.Logger) blockframe.Logger {
	return &Zap{logger: logger}
}

// Error logs an error message with key-value pairs.
func (z *Zap) Error(msg string, args ...any) {
	z.logger.Sugar().Errorw(msg, args...)
}

// Warn logs a warning message with key-value pairs.
func (z *Zap) Warn(msg string, args ...any) {
	z.logger.Sugar().Warnw(msg, args...)
}

// Info logs an info message with key-value pairs.
func (z *Zap) Info(msg string, args ...any) {
	z.logger.Sugar().Infow(msg, args...)
}

// Debug logs a debug message with key-value pairs.
func (z *Zap) Debug(msg string, args ...any) {
	z.logger.Sugar().Debugw(msg, args...)
}
