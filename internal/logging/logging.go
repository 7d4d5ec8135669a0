// Package logging builds the zap logger that is carried through contexts with go-easy-logging.
package logging

import (
	"context"
	"fmt"
	"strings"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a console logger. Verbose mode forces debug level and adds caller info.
func New(level string, verbose bool) (*zap.SugaredLogger, error) {
	zapLevel, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if verbose {
		zapLevel = zapcore.DebugLevel
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.Development = false
	config.DisableCaller = !verbose
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// WithLogger attaches the logger to the context.
func WithLogger(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return logging.WithLogger(ctx, logger)
}
