// Package cli provides rustc-style terminal output for erd: colored
// diagnostics for coded errors, aligned tables, and output mode detection.
package cli

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// OutputMode determines how output is formatted.
type OutputMode int

const (
	// ModeTTY enables rich colored output for interactive terminals.
	ModeTTY OutputMode = iota
	// ModePlain outputs plain text without colors (for pipes/CI).
	ModePlain
	// ModeJSON outputs structured JSON for programmatic consumption.
	ModeJSON
)

// Config holds CLI output configuration.
// Configuration is auto-detected; users don't configure this directly.
type Config struct {
	Mode   OutputMode
	Writer io.Writer
}

// DefaultConfig returns the auto-detected configuration.
// Rules:
//   - If stdout is TTY and NO_COLOR not set -> ModeTTY
//   - If stdout is not TTY, NO_COLOR is set or TERM=dumb -> ModePlain
//   - Use ModeJSON explicitly via NewConfigWithMode
func DefaultConfig() *Config {
	return &Config{
		Mode:   DetectMode(os.Stdout.Fd()),
		Writer: os.Stdout,
	}
}

// DetectMode picks ModeTTY or ModePlain for the file descriptor fd.
func DetectMode(fd uintptr) OutputMode {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return ModePlain
	}
	if IsTerminal(fd) {
		return ModeTTY
	}
	return ModePlain
}

// IsTerminal reports whether fd is an interactive terminal.
func IsTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NewConfigWithMode creates a config with a specific output mode.
// Used for --json flag or testing.
func NewConfigWithMode(mode OutputMode) *Config {
	cfg := DefaultConfig()
	cfg.Mode = mode
	return cfg
}

// IsTTY returns true if running in interactive terminal mode.
func (c *Config) IsTTY() bool {
	return c.Mode == ModeTTY
}

// IsPlain returns true if running in plain text mode.
func (c *Config) IsPlain() bool {
	return c.Mode == ModePlain
}

// IsJSON returns true if running in JSON output mode.
func (c *Config) IsJSON() bool {
	return c.Mode == ModeJSON
}

// Global default config, initialized lazily.
var defaultCfg *Config

// Default returns the global default configuration.
func Default() *Config {
	if defaultCfg == nil {
		defaultCfg = DefaultConfig()
	}
	return defaultCfg
}

// SetDefault sets the global default configuration.
// Used for testing or when --json flag is passed.
func SetDefault(cfg *Config) {
	defaultCfg = cfg
}

// EnableColors returns true if colors should be used.
func EnableColors() bool {
	return Default().IsTTY()
}
