package posterizer

import (
	"os"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
	Level(zerolog.WarnLevel).
	With().
	Timestamp().
	Logger()

// SetLogger replaces the package logger. Call it before creating posterizers;
// existing instances keep the logger they were created with.
func SetLogger(l zerolog.Logger) {
	logger = l
}

// Logger returns the package logger.
func Logger() zerolog.Logger {
	return logger
}

func componentLogger(component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}
