package log

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Mode selects the logger output
type Mode string

const (
	// ModeSilent discards all output
	ModeSilent Mode = "silent"
	// ModeDebug writes colored console output at debug level
	ModeDebug Mode = "debug"
	// ModeJSON writes production JSON at info level, for services
	ModeJSON Mode = "json"
)

var logger *zap.SugaredLogger

// ParseMode converts a configuration string to a Mode
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSilent, ModeDebug, ModeJSON:
		return m, nil
	case "":
		return ModeSilent, nil
	default:
		return "", fmt.Errorf("unknown log mode %q (want silent, debug or json)", s)
	}
}

// InitLogger initializes the global zap logger
func InitLogger(mode Mode) {
	var l *zap.Logger

	switch mode {
	case ModeDebug:
		config := zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		config.DisableStacktrace = true
		l = build(config)
	case ModeJSON:
		config := zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		l = build(config)
	default:
		l = zap.NewNop()
	}

	zap.ReplaceGlobals(l)
	zap.RedirectStdLog(l)
	logger = l.Sugar()
}

func build(config zap.Config) *zap.Logger {
	l, err := config.Build()
	if err != nil {
		panic(err)
	}
	return l
}

// GetLogger returns the global sugared logger
func GetLogger() *zap.SugaredLogger {
	if logger == nil {
		InitLogger(ModeSilent)
	}
	return logger
}

// Sync flushes buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
