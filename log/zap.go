package log

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZap adapts a zap logger.
func NewZap(l *zap.Logger) Logger {
	return &zapLogger{s: l.WithOptions(zap.AddCallerSkip(2)).Sugar()}
}

func (l *zapLogger) Debugf(format string, args ...any) {
	l.s.Debugf(format, args...)
}

func (l *zapLogger) Infof(format string, args ...any) {
	l.s.Infof(format, args...)
}

func (l *zapLogger) Warnf(format string, args ...any) {
	l.s.Warnf(format, args...)
}

func (l *zapLogger) Errorf(format string, args ...any) {
	l.s.Errorf(format, args...)
}

// BuildZap creates a stderr zap logger. level is debug, info, warn or error;
// format is json or console.
func BuildZap(level string, format string) (*zap.Logger, error) {
	var lvl zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = zap.DebugLevel
	case "", "info":
		lvl = zap.InfoLevel
	case "warn", "warning":
		lvl = zap.WarnLevel
	case "error":
		lvl = zap.ErrorLevel
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	if strings.ToLower(format) == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), zap.NewAtomicLevelAt(lvl))
	return zap.New(core, zap.AddCaller()), nil
}
