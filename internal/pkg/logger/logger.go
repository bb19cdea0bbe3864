// Package logger configures the global zerolog logger.
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config selects log level and output format.
type Config struct {
	Level       string
	Environment string
}

// Init sets up the global logger: pretty console output in development,
// JSON everywhere else.
func Init(cfg Config) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	switch cfg.Environment {
	case "development", "dev":
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}).With().Caller().Logger()
	default:
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
	}
}

type contextKey string

const loggerKey contextKey = "logger"

// WithContext attaches a logger to the context.
func WithContext(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the context's logger, or the global one.
func FromContext(ctx context.Context) *zerolog.Logger {
	if v := ctx.Value(loggerKey); v != nil {
		if logger, ok := v.(*zerolog.Logger); ok {
			return logger
		}
	}
	return &log.Logger
}
