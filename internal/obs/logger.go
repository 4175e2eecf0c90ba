// Copyright 2025 James Ross
package obs

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger(level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	switch strings.ToLower(level) {
	case "trace", "debug":
		lvl = zapcore.DebugLevel
	case "warn", "warning":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	case "critical":
		lvl = zapcore.DPanicLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "json"
	return cfg.Build()
}

// WithPlugin tags every subsequent log line with the originating plugin's
// name, so multiple loaded plugins' logs can be told apart.
func WithPlugin(log *zap.Logger, name string) *zap.Logger {
	return log.With(zap.String("plugin", name))
}

// Convenience typed fields
func String(k, v string) zap.Field    { return zap.String(k, v) }
func Int(k string, v int) zap.Field   { return zap.Int(k, v) }
func Bool(k string, v bool) zap.Field { return zap.Bool(k, v) }
func Err(err error) zap.Field         { return zap.Error(err) }
