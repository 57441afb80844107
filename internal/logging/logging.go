package logging

import (
	"os"

	"github.com/rs/zerolog"

	"narcissus/internal/config"
)

// New builds the daemon's logger. Every field — including "thread"
// (the goroutine's role: camera, exchange, server, client_N,
// supervisor) — is emitted as an LTSV key=value pair, per the
// log sink contract in the error handling design.
func New(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	return zerolog.New(newLTSVWriter(os.Stdout)).With().Timestamp().Logger()
}

// For a given goroutine's lifetime, With().Str("thread", name) tags every
// line it emits, satisfying the {thread, level, msg, ...} log contract.
func Thread(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("thread", name).Logger()
}
