package main

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/hlop3z/erdlab/internal/cli"
	"github.com/hlop3z/erdlab/internal/logger"
	"github.com/hlop3z/erdlab/internal/modeler"
	"github.com/hlop3z/erdlab/internal/resolver"
	"github.com/hlop3z/erdlab/internal/script"
	"github.com/hlop3z/erdlab/internal/ui"
)

// runner runs model scripts with a loaded config.
type runner struct {
	cfg     *Config
	log     zerolog.Logger
	decider resolver.Decider
}

// newRunner builds a runner. Junction prompts, when the policy asks, read
// answers from in and are written to out.
func newRunner(cfg *Config, in io.Reader, out io.Writer) *runner {
	lc := cfg.loggerConfig()
	lc.NoColor = !cli.EnableColors()
	return &runner{
		cfg:     cfg,
		log:     logger.New(lc),
		decider: junctionDecider(cfg.Junctions, in, out),
	}
}

// junctionDecider returns the decider for a junction policy.
func junctionDecider(policy string, in io.Reader, out io.Writer) resolver.Decider {
	switch policy {
	case JunctionsAccept:
		return resolver.Accept
	case JunctionsDecline:
		return resolver.Decline
	}
	styles := ui.PlainStyles()
	if cli.EnableColors() {
		styles = ui.DefaultStyles()
	}
	return ui.NewPrompter(in, out, styles)
}

// run executes the script at path against a fresh engine.
func (r *runner) run(ctx context.Context, path string) (*modeler.Engine, error) {
	eng := modeler.New(r.cfg.engineOptions(r.log)...)
	sb := script.New(eng,
		script.WithTimeout(r.cfg.Script.Timeout),
		script.WithDecider(r.decider),
		script.WithLogger(r.log),
	)
	if err := sb.RunFile(ctx, path); err != nil {
		return nil, err
	}
	return eng, nil
}

// setup loads the config and builds a runner for a command.
func setup(ctx commandContext, flags overrides) (*runner, error) {
	cfg, err := loadConfig(configFile, flags)
	if err != nil {
		return nil, err
	}
	return newRunner(cfg, ctx.InOrStdin(), ctx.ErrOrStderr()), nil
}

// commandContext is the part of *cobra.Command that setup needs.
type commandContext interface {
	InOrStdin() io.Reader
	ErrOrStderr() io.Writer
}
