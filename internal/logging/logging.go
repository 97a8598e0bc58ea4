// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the zap logger shared by all commands.
package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pdiddy/clause-engine/pkg/types"
)

const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 5
	defaultMaxAgeDays = 28
)

// New returns a logger configured by cfg. Output goes to stderr unless
// cfg.File is set, in which case it goes to a size-rotated file.
func New(cfg types.LogConfig) *zap.Logger {
	var out io.Writer = os.Stderr
	if cfg.File != "" {
		out = Rotator(cfg)
	}
	return NewWithWriter(cfg, out)
}

// NewWithWriter returns a logger writing to w.
func NewWithWriter(cfg types.LogConfig, w io.Writer) *zap.Logger {
	core := zapcore.NewCore(encoder(cfg.Format), zapcore.AddSync(w), ParseLevel(cfg.Level))
	return zap.New(core)
}

// Rotator returns the rotating file writer described by cfg.
func Rotator(cfg types.LogConfig) *lumberjack.Logger {
	l := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	if l.MaxSize <= 0 {
		l.MaxSize = defaultMaxSizeMB
	}
	if l.MaxBackups <= 0 {
		l.MaxBackups = defaultMaxBackups
	}
	if l.MaxAge <= 0 {
		l.MaxAge = defaultMaxAgeDays
	}
	return l
}

// ParseLevel maps a level name to a zap level; unknown names mean info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

func encoder(format string) zapcore.Encoder {
	if strings.EqualFold(format, "json") {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}
