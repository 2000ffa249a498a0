package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the service logger. Development gets human-readable console
// output; every other environment gets JSON lines.
func New(level zerolog.Level, env string) zerolog.Logger {
	return newWithWriter(os.Stderr, level, env)
}

func newWithWriter(w io.Writer, level zerolog.Level, env string) zerolog.Logger {
	out := w
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}
