package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hlop3z/erdlab/internal/alerr"
	"github.com/hlop3z/erdlab/internal/model"
	"github.com/hlop3z/erdlab/internal/modeler"
	"github.com/hlop3z/erdlab/internal/testutil"
)

// clearEnv unsets the ERD_* variables for the duration of a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ERD_OUTPUT", "ERD_LOG_LEVEL", "ERD_JUNCTIONS"} {
		t.Setenv(k, "")
	}
}

// writeConfig writes an erd.yaml into a fresh temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	testutil.WriteFile(t, path, content)
	return path
}

// -----------------------------------------------------------------------------
// ---------------------------------------------------------- Loading
// -----------------------------------------------------------------------------

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), overrides{})
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, cfg.Output, DefaultOutput)
	testutil.AssertEqual(t, cfg.Junctions, JunctionsAsk)
	testutil.AssertEqual(t, cfg.Layout.EntitiesPerRow, 3)
	testutil.AssertEqual(t, cfg.Layout.GridSpacing, 250.0)
	testutil.AssertEqual(t, cfg.Viewport.Width, 1280.0)
	testutil.AssertEqual(t, cfg.Script.Timeout, 5*time.Second)
	testutil.AssertEqual(t, cfg.Log.Level, "warn")
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("ERD_TEST_OUT", "build/schema.sql")
	path := writeConfig(t, `
viewport: { width: 1000, height: 600 }
layout:   { grid_spacing: 200, entities_per_row: 4 }
history:  { max_entries: 10 }
script:   { timeout: 2s }
junctions: accept
output: ${ERD_TEST_OUT}
log: { level: debug, format: json }
`)

	cfg, err := loadConfig(path, overrides{})
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, cfg.Viewport, ViewportConfig{Width: 1000, Height: 600})
	testutil.AssertEqual(t, cfg.Layout.GridSpacing, 200.0)
	testutil.AssertEqual(t, cfg.Layout.EntitiesPerRow, 4)
	testutil.AssertEqual(t, cfg.Layout.JunctionOffset, 100.0) // untouched keys keep defaults
	testutil.AssertEqual(t, cfg.History.MaxEntries, 10)
	testutil.AssertEqual(t, cfg.Script.Timeout, 2*time.Second)
	testutil.AssertEqual(t, cfg.Junctions, JunctionsAccept)
	testutil.AssertEqual(t, cfg.Output, "build/schema.sql")
	testutil.AssertEqual(t, cfg.Log, LogConfig{Level: "debug", Format: "json"})
}

func TestLoadConfigPrecedence(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "output: file.sql\njunctions: decline\nlog: { level: error }\n")

	t.Run("file", func(t *testing.T) {
		cfg, err := loadConfig(path, overrides{})
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, cfg.Output, "file.sql")
		testutil.AssertEqual(t, cfg.Junctions, JunctionsDecline)
		testutil.AssertEqual(t, cfg.Log.Level, "error")
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("ERD_OUTPUT", "env.sql")
		t.Setenv("ERD_JUNCTIONS", "accept")
		t.Setenv("ERD_LOG_LEVEL", "info")
		cfg, err := loadConfig(path, overrides{})
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, cfg.Output, "env.sql")
		testutil.AssertEqual(t, cfg.Junctions, JunctionsAccept)
		testutil.AssertEqual(t, cfg.Log.Level, "info")
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Setenv("ERD_OUTPUT", "env.sql")
		t.Setenv("ERD_JUNCTIONS", "accept")
		cfg, err := loadConfig(path, overrides{output: "flag.sql", junctions: "ask", logLevel: "debug"})
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, cfg.Output, "flag.sql")
		testutil.AssertEqual(t, cfg.Junctions, JunctionsAsk)
		testutil.AssertEqual(t, cfg.Log.Level, "debug")
	})
}

// -----------------------------------------------------------------------------
// ---------------------------------------------------------- Validation
// -----------------------------------------------------------------------------

func TestLoadConfigInvalid(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"entities per row", "layout: { entities_per_row: 0 }", "layout.entities_per_row"},
		{"grid spacing", "layout: { grid_spacing: -1 }", "layout.grid_spacing"},
		{"viewport", "viewport: { width: 0 }", "viewport"},
		{"negative offset", "layout: { junction_offset: -5 }", "layout.junction_offset"},
		{"history", "history: { max_entries: -1 }", "history.max_entries"},
		{"timeout", "script: { timeout: -1s }", "script.timeout"},
		{"empty output", "output: \"\"", "output"},
		{"junction policy", "junctions: sometimes", "junctions"},
		{"log level", "log: { level: loud }", "level"},
		{"log format", "log: { format: xml }", "format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := loadConfig(path, overrides{})
			testutil.AssertError(t, err, alerr.ErrConfigInvalid)

			var coded *alerr.Error
			if !errors.As(err, &coded) {
				t.Fatalf("error %T is not coded", err)
			}
			ctx := coded.GetContext()
			if _, ok := ctx[tt.want]; !ok && ctx["key"] != tt.want {
				t.Errorf("context %v does not name %q", ctx, tt.want)
			}
			if ctx["file"] != path {
				t.Errorf("file = %v, want %s", ctx["file"], path)
			}
		})
	}
}

func TestLoadConfigJunctionSuggestion(t *testing.T) {
	clearEnv(t)
	_, err := loadConfig(filepath.Join(t.TempDir(), "none.yaml"), overrides{junctions: "acept"})
	testutil.AssertErrorContains(t, err, "unknown junction policy")

	var coded *alerr.Error
	if !errors.As(err, &coded) {
		t.Fatal("expected coded error")
	}
	helps := coded.Helps()
	if len(helps) == 0 || helps[0] != "did you mean 'accept'?" {
		t.Errorf("helps = %v", helps)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "layout: [not, a, map")
	_, err := loadConfig(path, overrides{})
	testutil.AssertError(t, err, alerr.ErrConfigInvalid)
	testutil.AssertErrorContains(t, err, "failed to parse config file")
}

func TestLoadConfigUnreadable(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	// A directory cannot be read as a file.
	_, err := loadConfig(dir, overrides{})
	testutil.AssertError(t, err, alerr.ErrFileRead)
}

func TestEngineOptions(t *testing.T) {
	cfg := defaultConfig()
	cfg.Layout.EntitiesPerRow = 1
	cfg.Viewport = ViewportConfig{Width: 200, Height: 100}

	eng := modeler.New(cfg.engineOptions(zerolog.Nop())...)
	first := eng.AddEntity(model.Entity{Name: "A"})
	second := eng.AddEntity(model.Entity{Name: "B"})

	tests := []struct {
		id   string
		want model.Position
	}{
		{first.ID, model.Position{X: 100, Y: -200}},
		{second.ID, model.Position{X: 100, Y: 50}},
	}
	for _, tt := range tests {
		ent, ok := eng.Entity(tt.id)
		if !ok || ent.Position == nil {
			t.Fatalf("entity %q missing or unplaced", tt.id)
		}
		testutil.AssertEqual(t, *ent.Position, tt.want)
	}
}

func TestDefaultConfigRoundTrip(t *testing.T) {
	clearEnv(t)
	data, err := initConfigData()
	testutil.AssertNoError(t, err)

	path := writeConfig(t, string(data))
	cfg, err := loadConfig(path, overrides{})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, *cfg, *defaultConfig())

	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
}
