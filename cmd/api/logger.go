package main

import (
	"github.com/SergeiKhy/sus/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger строит JSON-логгер в production и консольный в остальных окружениях.
// Уровнем можно управлять на лету через возвращаемый AtomicLevel.
func newLogger(cfg config.AppConfig) (*zap.Logger, zap.AtomicLevel, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level := zap.NewAtomicLevelAt(parseLevel(cfg.LogLevel, zapCfg.Level.Level()))
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, level, err
	}
	return logger, level, nil
}

func parseLevel(raw string, fallback zapcore.Level) zapcore.Level {
	if raw == "" {
		return fallback
	}
	level, err := zapcore.ParseLevel(raw)
	if err != nil {
		return fallback
	}
	return level
}
