// Package logger builds the zerolog loggers used by the engine, the script
// sandbox and the CLI.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hlop3z/erdlab/internal/alerr"
)

// Formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config holds logger configuration.
type Config struct {
	Level   string // debug, info, warn, error, disabled
	Format  string // json, console
	NoColor bool   // console format only
	Output  io.Writer
}

// DefaultConfig returns CLI defaults: warnings and above, console format on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "warn",
		Format: FormatConsole,
		Output: os.Stderr,
	}
}

// New creates a logger. Unknown levels fall back to warn and unknown formats
// to json; use Validate to reject them up front.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.WarnLevel
	}

	if cfg.Format == FormatConsole {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.NoColor,
		}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Validate checks the level and format.
func (c Config) Validate() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}
	switch c.Format {
	case "", FormatJSON, FormatConsole:
		return nil
	default:
		return alerr.New(alerr.ErrConfigInvalid, "unknown log format").
			With("format", c.Format).
			WithHelp("use json or console")
	}
}

// ParseLevel maps a level name to a zerolog level. The empty string is warn.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "", "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off", "none":
		return zerolog.Disabled, nil
	default:
		levels := []string{"debug", "info", "warn", "error", "disabled"}
		e := alerr.New(alerr.ErrConfigInvalid, "unknown log level").With("level", level)
		if hint := alerr.SuggestSimilar(level, levels); hint != "" {
			e.WithHelp(hint)
		}
		return zerolog.WarnLevel, e
	}
}
