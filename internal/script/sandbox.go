// Package script runs JavaScript model scripts against a modeling engine
// inside a deterministic Goja sandbox.
package script

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"time"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"

	"github.com/hlop3z/erdlab/internal/alerr"
	"github.com/hlop3z/erdlab/internal/modeler"
	"github.com/hlop3z/erdlab/internal/resolver"
)

// FixedTime is the time seen by Date inside every script.
var FixedTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// FixedSeed seeds Math.random.
const FixedSeed = 12345

// DefaultTimeout bounds a single Run.
const DefaultTimeout = 5 * time.Second

// MaxCallStackSize limits script recursion depth.
const MaxCallStackSize = 500

const timeoutInterrupt = "execution timeout"

// Sandbox executes scripts whose globals drive one modeler.Engine.
// A Sandbox is not safe for concurrent use; the engine it drives is.
type Sandbox struct {
	vm      *goja.Runtime
	eng     *modeler.Engine
	decider resolver.Decider
	timeout time.Duration
	log     zerolog.Logger

	// Per-run state
	ctx         context.Context
	watch       *watchdog
	currentName string
	currentFile string
	currentCode string
	thrown      *alerr.Error // last error raised by a binding
}

// Option configures a Sandbox.
type Option func(*Sandbox)

// WithTimeout sets the time budget of each run. Zero or less disables it.
// Time spent waiting for a junction decision is not counted.
func WithTimeout(d time.Duration) Option {
	return func(s *Sandbox) {
		s.timeout = d
	}
}

// WithDecider sets who answers the junction question raised by setCardinality
// with an n:n pair. The default declines.
func WithDecider(d resolver.Decider) Option {
	return func(s *Sandbox) {
		if d != nil {
			s.decider = d
		}
	}
}

// WithLogger sets the logger used for run events and console.log output.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Sandbox) {
		s.log = l
	}
}

// New creates a hardened sandbox bound to eng.
func New(eng *modeler.Engine, opts ...Option) *Sandbox {
	vm := goja.New()

	// Resource limits
	vm.SetMaxCallStackSize(MaxCallStackSize)

	// Deterministic execution - fixed random source and time
	seedRand := rand.New(rand.NewSource(FixedSeed))
	vm.SetRandSource(func() float64 { return seedRand.Float64() })
	vm.SetTimeSource(func() time.Time { return FixedTime })

	s := &Sandbox{
		vm:      vm,
		eng:     eng,
		decider: resolver.Decline,
		timeout: DefaultTimeout,
		log:     zerolog.Nop(),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.bind()
	disableDangerousGlobals(vm)

	return s
}

// disableDangerousGlobals removes eval and freezes the built-in prototypes.
func disableDangerousGlobals(vm *goja.Runtime) {
	_ = vm.Set("eval", goja.Undefined())

	_, _ = vm.RunString(`
		(function() {
			try {
				Object.freeze(Object.prototype);
				Object.freeze(Array.prototype);
				Object.freeze(String.prototype);
				Object.freeze(Number.prototype);
				Object.freeze(Boolean.prototype);
			} catch(e) {}
		})();
	`)
}

// Engine returns the engine the sandbox drives.
func (s *Sandbox) Engine() *modeler.Engine {
	return s.eng
}

// Run executes code. It stops early when ctx is done or the timeout elapses.
// Commands applied before a failure stay applied and can be undone.
func (s *Sandbox) Run(ctx context.Context, code string) error {
	s.currentFile = ""
	return s.run(ctx, "<script>", code)
}

// RunFile reads and executes the script at path.
func (s *Sandbox) RunFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return alerr.Wrap(alerr.ErrFileRead, err, "cannot read script").WithFile(path, 0)
	}
	s.currentFile = path
	return s.run(ctx, path, string(data))
}

func (s *Sandbox) run(ctx context.Context, name, code string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return alerr.Wrap(alerr.ErrScriptExecution, err, "script cancelled")
	}

	s.ctx = ctx
	s.thrown = nil
	s.currentName = name
	s.currentCode = code
	s.watch = startWatchdog(s.timeout, func() { s.vm.Interrupt(timeoutInterrupt) })
	stopCancel := context.AfterFunc(ctx, func() { s.vm.Interrupt(ctx.Err()) })
	defer func() {
		stopCancel()
		s.watch.stop()
		s.vm.ClearInterrupt()
		s.ctx = context.Background()
	}()

	start := time.Now()
	_, err := s.vm.RunScript(name, code)
	s.log.Info().
		Str("script", name).
		Dur("duration", time.Since(start)).
		Bool("ok", err == nil).
		Msg("script finished")

	if err == nil {
		return nil
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return alerr.Wrap(alerr.ErrScriptExecution, cause, "script cancelled")
		}
		timeoutErr := alerr.New(alerr.ErrScriptTimeout, "script execution timed out").
			With("timeout", s.timeout.String())
		if s.currentFile != "" {
			timeoutErr.WithFile(s.currentFile, 0)
		}
		return timeoutErr
	}

	return s.wrapJSError(err)
}

// wrapJSError converts a Goja failure into a coded error with location and
// source line. An uncaught error raised by a binding is returned as itself.
func (s *Sandbox) wrapJSError(err error) *alerr.Error {
	info := ParseJSError(err)

	var out *alerr.Error
	if t := s.thrown; t != nil && info.ErrorCode == string(t.GetCode()) && info.Message == t.GetMessage() {
		out = t
	} else {
		code := alerr.ErrScriptExecution
		if info.ErrorCode != "" {
			code = alerr.Code(info.ErrorCode)
		}
		out = alerr.Wrap(code, err, info.Message)
		if info.Help != "" {
			out.WithHelp(info.Help)
		}
		addJSErrorHelp(out, info.Message)
	}

	if s.currentFile != "" {
		out.WithFile(s.currentFile, info.Line)
	} else if info.Line > 0 {
		out.With("line", info.Line)
	}
	out.WithColumn(info.Column)
	out.WithSource(GetSourceLine(s.currentCode, info.Line))

	return out
}
