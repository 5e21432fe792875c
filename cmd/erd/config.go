package main

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/hlop3z/erdlab/internal/alerr"
	"github.com/hlop3z/erdlab/internal/logger"
	"github.com/hlop3z/erdlab/internal/modeler"
	"github.com/hlop3z/erdlab/internal/script"
)

// Defaults.
const (
	DefaultConfigFile = "erd.yaml"
	DefaultOutput     = "database.sql"
)

// Junction policies.
const (
	JunctionsAsk     = "ask"
	JunctionsAccept  = "accept"
	JunctionsDecline = "decline"
)

// Config represents the erd.yaml configuration file.
type Config struct {
	Viewport  ViewportConfig `yaml:"viewport"`
	Layout    LayoutConfig   `yaml:"layout"`
	History   HistoryConfig  `yaml:"history"`
	Script    ScriptConfig   `yaml:"script"`
	Junctions string         `yaml:"junctions"`
	Output    string         `yaml:"output"`
	Log       LogConfig      `yaml:"log"`
}

// ViewportConfig locates the centre of the grid layout.
type ViewportConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// LayoutConfig holds the grid layout tunables.
type LayoutConfig struct {
	GridSpacing    float64 `yaml:"grid_spacing"`
	EntitiesPerRow int     `yaml:"entities_per_row"`
	JunctionOffset float64 `yaml:"junction_offset"`
}

// HistoryConfig bounds the undo history. Zero is unbounded.
type HistoryConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// ScriptConfig configures the script sandbox.
type ScriptConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// overrides carries values set on the command line. Empty means unset.
type overrides struct {
	output    string
	junctions string
	logLevel  string
}

func defaultConfig() *Config {
	return &Config{
		Viewport: ViewportConfig{Width: modeler.DefaultViewportWidth, Height: modeler.DefaultViewportHeight},
		Layout: LayoutConfig{
			GridSpacing:    modeler.DefaultGridSpacing,
			EntitiesPerRow: modeler.DefaultEntitiesPerRow,
			JunctionOffset: modeler.DefaultJunctionOffset,
		},
		Script:    ScriptConfig{Timeout: script.DefaultTimeout},
		Junctions: JunctionsAsk,
		Output:    DefaultOutput,
		Log:       LogConfig{Level: "warn", Format: logger.FormatConsole},
	}
}

// loadConfig loads configuration from file, env vars, and CLI flags.
// Precedence: CLI flags > env vars > config file > defaults.
// A missing config file is not an error. Validation errors name the file
// when one was read.
func loadConfig(path string, flags overrides) (*Config, error) {
	cfg := defaultConfig()

	loaded := false
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		loaded = true
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, alerr.Wrap(alerr.ErrConfigInvalid, err, "failed to parse config file").
				WithFile(path, 0)
		}
		cfg.expandEnvVars()
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, alerr.Wrap(alerr.ErrFileRead, err, "failed to read config file").
			WithFile(path, 0)
	}

	// Override with env vars
	if v := os.Getenv("ERD_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("ERD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ERD_JUNCTIONS"); v != "" {
		cfg.Junctions = v
	}

	// Override with CLI flags (highest priority)
	if flags.output != "" {
		cfg.Output = flags.output
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.junctions != "" {
		cfg.Junctions = flags.junctions
	}

	if err := cfg.Validate(); err != nil {
		var coded *alerr.Error
		if loaded && errors.As(err, &coded) && coded.GetContext()["file"] == nil {
			coded.WithFile(path, 0)
		}
		return nil, err
	}
	return cfg, nil
}

// expandEnvVars expands ${VAR} patterns in string values.
func (c *Config) expandEnvVars() {
	for _, s := range []*string{&c.Junctions, &c.Output, &c.Log.Level, &c.Log.Format} {
		*s = os.Expand(*s, os.Getenv)
	}
}

// Validate rejects values the engine cannot work with.
func (c *Config) Validate() error {
	invalid := func(key string, value any, help string) error {
		return alerr.New(alerr.ErrConfigInvalid, "invalid config value").
			With("key", key).
			With("value", value).
			WithHelp(help)
	}

	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return invalid("viewport", c.Viewport, "width and height must be positive")
	}
	if c.Layout.GridSpacing <= 0 {
		return invalid("layout.grid_spacing", c.Layout.GridSpacing, "grid_spacing must be positive")
	}
	if c.Layout.EntitiesPerRow < 1 {
		return invalid("layout.entities_per_row", c.Layout.EntitiesPerRow, "entities_per_row must be at least 1")
	}
	if c.Layout.JunctionOffset < 0 {
		return invalid("layout.junction_offset", c.Layout.JunctionOffset, "junction_offset must not be negative")
	}
	if c.History.MaxEntries < 0 {
		return invalid("history.max_entries", c.History.MaxEntries, "use 0 for unbounded history")
	}
	if c.Script.Timeout < 0 {
		return invalid("script.timeout", c.Script.Timeout, "use 0 to disable the timeout")
	}
	if c.Output == "" {
		return invalid("output", c.Output, "set an output path or use --stdout")
	}

	switch c.Junctions {
	case JunctionsAsk, JunctionsAccept, JunctionsDecline:
	default:
		e := alerr.New(alerr.ErrConfigInvalid, "unknown junction policy").
			With("junctions", c.Junctions)
		if hint := alerr.SuggestSimilar(c.Junctions, []string{JunctionsAsk, JunctionsAccept, JunctionsDecline}); hint != "" {
			e.WithHelp(hint)
		}
		return e.WithHelp("use ask, accept or decline")
	}

	return c.loggerConfig().Validate()
}

func (c *Config) loggerConfig() logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = c.Log.Level
	if c.Log.Format != "" {
		lc.Format = c.Log.Format
	}
	return lc
}

// engineOptions maps the config onto engine options.
func (c *Config) engineOptions(log zerolog.Logger) []modeler.Option {
	return []modeler.Option{
		modeler.WithViewport(c.Viewport.Width, c.Viewport.Height),
		modeler.WithGridSpacing(c.Layout.GridSpacing),
		modeler.WithEntitiesPerRow(c.Layout.EntitiesPerRow),
		modeler.WithJunctionOffset(c.Layout.JunctionOffset),
		modeler.WithHistoryLimit(c.History.MaxEntries),
		modeler.WithLogger(log),
	}
}
