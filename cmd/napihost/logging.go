package main

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wippyai/napi-host/async"
	"github.com/wippyai/napi-host/config"
	"github.com/wippyai/napi-host/engine"
	"github.com/wippyai/napi-host/napi"
	"github.com/wippyai/napi-host/registry"
	"github.com/wippyai/napi-host/resolver"
)

// newLogger writes to stderr and, when cfg.File is set, to a rotated file.
func newLogger(cfg config.LogConfig, verbose bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	if cfg.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level),
	}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
			return nil, err
		}
		file := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), file, level))
	}

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}
	return zap.New(zapcore.NewTee(cores...), opts...), nil
}

// installLoggers points every package logger at l.
func installLoggers(l *zap.Logger) {
	registry.SetLogger(l.Named("registry"))
	resolver.SetLogger(l.Named("resolver"))
	engine.SetLogger(l.Named("engine"))
	async.SetLogger(l.Named("async"))
	napi.SetLogger(l.Named("napi"))
}
