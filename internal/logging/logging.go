package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const DefaultLevel = "warn"

type Options struct {
	Level string
	JSON  bool
	Out   io.Writer
}

// New builds the root logger. Output goes to stderr so stdout stays a clean
// envelope stream.
func New(opts Options) (zerolog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if !opts.JSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

func ParseLevel(v string) (zerolog.Level, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		v = DefaultLevel
	}
	return zerolog.ParseLevel(v)
}

// Component tags logger with the emitting component.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
