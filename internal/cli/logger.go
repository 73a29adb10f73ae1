package cli

import (
	"fmt"

	"github.com/jensneuse/abstractlogger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// buildLogger is swapped in tests to capture log output.
var buildLogger = newLogger

func newLogger(level string) (*zap.Logger, abstractlogger.Logger, error) {
	atomicLevel := zap.NewAtomicLevel()
	if err := atomicLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("log level %q: %w", level, err)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = atomicLevel
	zapConfig.Encoding = "console"
	zapConfig.Sampling = nil
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, nil, err
	}

	return zapLogger, abstractlogger.NewZapLogger(zapLogger, abstractLevel(atomicLevel.Level())), nil
}

func abstractLevel(level zapcore.Level) abstractlogger.Level {
	switch {
	case level <= zapcore.DebugLevel:
		return abstractlogger.DebugLevel
	case level == zapcore.InfoLevel:
		return abstractlogger.InfoLevel
	case level == zapcore.WarnLevel:
		return abstractlogger.WarnLevel
	default:
		return abstractlogger.ErrorLevel
	}
}
