// Package logging builds the process-wide zap logger from configuration.
package logging

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seenimoa/earningsinsights/internal/config"
)

// New builds a logger for the given level ("debug", "info", "warn", "error")
// and format ("text" for console output, "json" for structured output).
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(strings.ToLower(strings.TrimSpace(orDefault(cfg.Level, "info"))))
	if err != nil {
		return nil, eris.Wrapf(err, "invalid log level %q", cfg.Level)
	}

	var zc zap.Config
	switch strings.ToLower(orDefault(cfg.Format, "text")) {
	case "json":
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "ts"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "text", "console":
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.DisableStacktrace = true
	default:
		return nil, eris.Errorf("invalid log format %q (want text or json)", cfg.Format)
	}
	zc.Level = level

	logger, err := zc.Build()
	if err != nil {
		return nil, eris.Wrap(err, "build logger")
	}
	return logger, nil
}

// Setup builds the logger and installs it as zap's global logger so
// packages can use zap.L(). The returned function flushes buffered entries.
func Setup(cfg config.LoggingConfig) (*zap.Logger, func(), error) {
	logger, err := New(cfg)
	if err != nil {
		return nil, nil, err
	}
	restore := zap.ReplaceGlobals(logger)
	return logger, func() {
		_ = logger.Sync()
		restore()
	}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
