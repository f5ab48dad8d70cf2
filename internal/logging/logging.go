// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger based on verbosity level and writes
// human-readable output to w.
//
//	0  warn
//	1  info
//	2  debug (with caller)
//	3+ trace (with caller)
func Setup(verbosity int, w io.Writer) {
	zerolog.SetGlobalLevel(Level(verbosity))

	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
	}
	log.Logger = zerolog.New(console).With().Timestamp().Logger()

	if verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}

	log.Debug().Int("verbosity", verbosity).Msg("Logger initialized")
}

// SetupJSON is Setup with structured JSON output, for machine consumption.
func SetupJSON(verbosity int, w io.Writer) {
	zerolog.SetGlobalLevel(Level(verbosity))
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// Level maps a verbosity count to a zerolog level.
func Level(verbosity int) zerolog.Level {
	switch verbosity {
	case 0:
		return zerolog.WarnLevel
	case 1:
		return zerolog.InfoLevel
	case 2:
		return zerolog.DebugLevel
	default:
		if verbosity < 0 {
			return zerolog.WarnLevel
		}
		return zerolog.TraceLevel
	}
}

// For returns a logger tagged with the given component name.
func For(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Duration logs the time taken by operation at debug level. Use with defer:
//
//	defer logging.Duration(logger, time.Now(), "replay")
func Duration(logger zerolog.Logger, start time.Time, operation string) {
	logger.Debug().
		Str("operation", operation).
		Dur("duration", time.Since(start)).
		Msg("Operation completed")
}
