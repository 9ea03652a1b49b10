// Package logging configures zerolog for the process and mints
// session-scoped loggers.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger: console output on stderr and
// the given level (debug, info, warn, error; anything else means info).
func Setup(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
}

// SessionLogger returns a logger tagged with a fresh session id and the
// revision window, so concurrent sessions stay distinguishable in output.
func SessionLogger(base, head string) zerolog.Logger {
	return log.With().
		Str("session_id", uuid.NewString()).
		Str("base", base).
		Str("head", head).
		Logger()
}
