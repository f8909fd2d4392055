package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with convenience methods for the tools.
type Logger struct {
	*zap.Logger
}

// Config defines logger configuration.
type Config struct {
	Name      string // tool name, prefixes every diagnostic line
	Verbosity int    // 0 = warnings only, 1 = info, 2+ = debug
}

// New creates a diagnostic logger writing to stderr. The data path owns
// stdout, so nothing the logger emits may ever land there. At the
// default verbosity only warnings and errors appear, which keeps
// rejected control updates silent.
func New(cfg Config) *Logger {
	level := zapcore.WarnLevel
	switch {
	case cfg.Verbosity >= 2:
		level = zapcore.DebugLevel
	case cfg.Verbosity == 1:
		level = zapcore.InfoLevel
	}

	zapCfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          "console",
		EncoderConfig:     encoderConfig(),
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     true,
		DisableStacktrace: true,
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return &Logger{Logger: zap.NewNop()}
	}
	if cfg.Name != "" {
		logger = logger.Named(cfg.Name)
	}
	return &Logger{Logger: logger}
}

// Nop returns a logger that discards everything. Tests use it.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// encoderConfig returns a terse console encoding: no timestamps, no
// caller, just level, tool name and message. Pipeline diagnostics are
// read by humans watching stderr, not by log shippers.
func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:     "M",
		LevelKey:       "L",
		NameKey:        "N",
		TimeKey:        zapcore.OmitKey,
		CallerKey:      zapcore.OmitKey,
		FunctionKey:    zapcore.OmitKey,
		StacktraceKey:  zapcore.OmitKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
}
