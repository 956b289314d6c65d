// Package logger builds the zerolog loggers injected throughout the
// valuation service.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger settings, sourced from the environment config
type Config struct {
	Level  string    // debug, info, warn, error; empty defaults to info
	Pretty bool      // human-readable console output for development
	Output io.Writer // defaults to os.Stdout
}

// New creates a structured logger. The level gates the returned logger
// only, so subsystems and tests can run at independent verbosities.
func New(cfg Config) (zerolog.Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger(), nil
}
