package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger *zap.Logger

// Init builds the station-wide logger. Development gets colored console
// output for the operator terminal; production gets JSON for log shipping.
// An unparseable level keeps the preset's default.
func Init(environment string, level string) error {
	var cfg zap.Config

	switch environment {
	case "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if parsed, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(parsed)
	}

	built, err := cfg.Build()
	if err != nil {
		return err
	}

	globalLogger = built
	return nil
}

// Get returns the station logger. Before Init it returns a no-op logger so
// early callers never panic.
func Get() *zap.Logger {
	if globalLogger == nil {
		return zap.NewNop()
	}
	return globalLogger
}

// Sync flushes buffered entries, typically on shutdown.
func Sync() {
	if globalLogger != nil {
		globalLogger.Sync()
	}
}
