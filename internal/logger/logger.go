// Package logger holds the process-wide structured logger.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the global logger. It is a no-op until Initialize is called so
// packages can log from tests and init paths without a nil check.
var Logger *zap.SugaredLogger

func init() {
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger. jsonOutput selects the production JSON
// encoder, otherwise a console encoder is used.
func Initialize(level string, jsonOutput bool) error {
	lvl := ParseLevel(level)

	var zapLogger *zap.Logger
	if jsonOutput {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		l, err := cfg.Build()
		if err != nil {
			return err
		}
		zapLogger = l
	} else {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		zapLogger = zap.New(
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(encoderCfg),
				zapcore.AddSync(os.Stdout),
				lvl,
			),
		)
	}

	Logger = zapLogger.With(zap.String("service", "dishbook-backend")).Sugar()
	return nil
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Logger.Sync()
}
