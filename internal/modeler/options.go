package modeler

import (
	"time"

	"github.com/rs/zerolog"
)

// Default layout constants, in canvas units.
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 800
	DefaultGridSpacing    = 250
	DefaultEntitiesPerRow = 3
	DefaultJunctionOffset = 100
)

// Config holds the engine's tunables. Zero values fall back to the defaults.
type Config struct {
	// ViewportWidth and ViewportHeight locate the centre of the grid layout.
	ViewportWidth  float64
	ViewportHeight float64

	// GridSpacing is the distance between grid cells.
	GridSpacing float64

	// EntitiesPerRow is the number of grid columns.
	EntitiesPerRow int

	// JunctionOffset pushes synthesized junction entities below the
	// midpoint of their endpoints.
	JunctionOffset float64

	// HistoryLimit bounds the history log. Zero means unbounded.
	HistoryLimit int

	// IDs generates ids for entities, attributes and relationships that
	// arrive without one.
	IDs IDGenerator

	// Now timestamps history entries.
	Now func() time.Time

	Logger zerolog.Logger
}

// Option is a functional option for configuring the Engine.
type Option func(*Config)

// WithViewport sets the viewport size used to centre new entities.
func WithViewport(width, height float64) Option {
	return func(c *Config) {
		c.ViewportWidth = width
		c.ViewportHeight = height
	}
}

// WithGridSpacing sets the distance between grid cells.
// Default: 250
func WithGridSpacing(spacing float64) Option {
	return func(c *Config) {
		c.GridSpacing = spacing
	}
}

// WithEntitiesPerRow sets the number of grid columns.
// Default: 3
func WithEntitiesPerRow(n int) Option {
	return func(c *Config) {
		c.EntitiesPerRow = n
	}
}

// WithJunctionOffset sets the downward offset of junction entities.
// Default: 100
func WithJunctionOffset(offset float64) Option {
	return func(c *Config) {
		c.JunctionOffset = offset
	}
}

// WithHistoryLimit bounds the number of retained history entries.
func WithHistoryLimit(n int) Option {
	return func(c *Config) {
		c.HistoryLimit = n
	}
}

// WithIDGenerator replaces the uuid-based id generator.
func WithIDGenerator(ids IDGenerator) Option {
	return func(c *Config) {
		c.IDs = ids
	}
}

// WithClock replaces the history timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

// WithLogger sets the logger for command tracing.
// Default: zerolog.Nop()
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func defaultConfig() Config {
	return Config{
		ViewportWidth:  DefaultViewportWidth,
		ViewportHeight: DefaultViewportHeight,
		GridSpacing:    DefaultGridSpacing,
		EntitiesPerRow: DefaultEntitiesPerRow,
		JunctionOffset: DefaultJunctionOffset,
		IDs:            UUIDs,
		Now:            time.Now,
		Logger:         zerolog.Nop(),
	}
}

func (c *Config) normalize() {
	d := defaultConfig()
	if c.GridSpacing <= 0 {
		c.GridSpacing = d.GridSpacing
	}
	if c.EntitiesPerRow < 1 {
		c.EntitiesPerRow = d.EntitiesPerRow
	}
	if c.IDs == nil {
		c.IDs = d.IDs
	}
	if c.Now == nil {
		c.Now = d.Now
	}
}
