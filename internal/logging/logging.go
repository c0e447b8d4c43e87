package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds the process logger and installs it as the global zerolog logger.
// pretty selects the console writer; otherwise JSON lines go to stderr.
func New(app, level string, pretty bool) zerolog.Logger {
	var out io.Writer = os.Stderr
	if pretty {
		out = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}
	return Install(zerolog.New(out), app, level)
}

// Install decorates base with the app name and level and makes it global
func Install(base zerolog.Logger, app, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	logger := base.Level(lvl).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
