package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// Logger is the leveled logging interface used across goscope.
// *zap.SugaredLogger satisfies it.
type Logger interface {
	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
}

var _ Logger = (*zap.SugaredLogger)(nil)

// NullLogger ignores all messages.
type NullLogger struct{}

// Null is a shared no-op logger.
var Null Logger = NullLogger{}

func (NullLogger) Error(args ...interface{}) {}

func (NullLogger) Errorf(format string, args ...interface{}) {}

func (NullLogger) Warn(args ...interface{}) {}

func (NullLogger) Warnf(format string, args ...interface{}) {}

func (NullLogger) Info(args ...interface{}) {}

func (NullLogger) Infof(format string, args ...interface{}) {}

func (NullLogger) Debug(args ...interface{}) {}

func (NullLogger) Debugf(format string, args ...interface{}) {}

// New builds a zap development logger. Debug enables debug level and caller info.
func New(debug bool) (*zap.SugaredLogger, error) {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	logCfg := zap.NewDevelopmentConfig()
	logCfg.DisableStacktrace = true
	logCfg.DisableCaller = level > zap.DebugLevel
	logCfg.Level.SetLevel(level)
	zapLogger, err := logCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return zapLogger.Sugar(), nil
}

// OrNull returns l, or Null when l is nil.
func OrNull(l Logger) Logger {
	if l == nil {
		return Null
	}
	return l
}
