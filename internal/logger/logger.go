package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log formats accepted by New
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

func levelFor(debugMode bool) zap.AtomicLevel {
	if debugMode {
		return zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zap.NewAtomicLevelAt(zapcore.InfoLevel)
}

func productionConfig(debugMode bool) zap.Config {
	config := zap.NewProductionConfig()
	config.Level = levelFor(debugMode)
	config.Encoding = "json"
	config.EncoderConfig = zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	config.DisableStacktrace = false
	return config
}

func developmentConfig(debugMode bool) zap.Config {
	config := zap.NewDevelopmentConfig()
	config.Level = levelFor(debugMode)
	return config
}

// NewProductionLogger creates a JSON logger writing to stderr
func NewProductionLogger(debugMode bool) (*zap.Logger, error) {
	return productionConfig(debugMode).Build()
}

// NewDevelopmentLogger creates a console logger for interactive use
func NewDevelopmentLogger(debugMode bool) (*zap.Logger, error) {
	return developmentConfig(debugMode).Build()
}

// New builds a logger for format. When file is set, entries go to that file
// instead of stderr; the CLI keeps its stdout for command output either way.
func New(format, file string, debugMode bool) (*zap.Logger, error) {
	var config zap.Config
	switch format {
	case "", FormatJSON:
		config = productionConfig(debugMode)
	case FormatConsole:
		config = developmentConfig(debugMode)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	if file != "" {
		config.OutputPaths = []string{file}
		config.ErrorOutputPaths = []string{file}
	}
	return config.Build()
}

// Sync flushes any buffered log entries. It's safe to call Sync() multiple times.
func Sync(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	return logger.Sync()
}
