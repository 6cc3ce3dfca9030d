// utils/logger.go
package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. Development gets the coloured console
// encoder, everything else JSON.
func NewLogger(env, level string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if env == "" || env == "development" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(strings.ToLower(level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// GocronLogger adapts a sugared logger to gocron's Logger interface.
type GocronLogger struct {
	S *zap.SugaredLogger
}

func (l GocronLogger) Debug(msg string, args ...any) { l.S.Debugw(msg, args...) }
func (l GocronLogger) Info(msg string, args ...any)  { l.S.Infow(msg, args...) }
func (l GocronLogger) Warn(msg string, args ...any)  { l.S.Warnw(msg, args...) }
func (l GocronLogger) Error(msg string, args ...any) { l.S.Errorw(msg, args...) }
