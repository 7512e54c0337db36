// Package logging builds the diagnostic zerolog logger for the CLI.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options selects the logger output.
type Options struct {
	Debug bool
	JSON  bool
	Color bool
	Out   io.Writer // defaults to os.Stderr
}

// New returns a logger at info level, or debug with Debug set. Console
// output is the default; JSON writes one object per line.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	var logger zerolog.Logger
	if opts.JSON {
		logger = zerolog.New(out)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    !opts.Color,
		})
	}

	return logger.Level(level).With().Timestamp().Logger()
}
