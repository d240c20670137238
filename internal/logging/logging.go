package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"hostel-ledger-backend/config"
)

// New builds the process logger. Development and local environments get the
// development preset and debug level unless a level is configured.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	env := strings.ToLower(strings.TrimSpace(cfg.Environment))

	base := configByEnvironment(env)
	level, err := resolveLevel(env, cfg.Level)
	if err != nil {
		return nil, err
	}
	base.Level = level
	base.DisableStacktrace = true

	logger, err := base.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

func isDevelopment(env string) bool {
	return env == "development" || env == "local"
}

func resolveLevel(env, raw string) (zap.AtomicLevel, error) {
	if strings.TrimSpace(raw) != "" {
		var parsed zapcore.Level
		if err := parsed.Set(raw); err != nil {
			return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", raw, err)
		}
		return zap.NewAtomicLevelAt(parsed), nil
	}
	if isDevelopment(env) {
		return zap.NewAtomicLevelAt(zapcore.DebugLevel), nil
	}
	return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
}

func configByEnvironment(env string) zap.Config {
	cfg := zap.NewProductionConfig()
	if isDevelopment(env) {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Encoding = "json"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}
