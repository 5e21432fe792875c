package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hlop3z/erdlab/internal/resolver"
)

// MaxAttempts bounds how often Confirm re-asks after an unrecognized answer.
const MaxAttempts = 3

// ErrNoAnswer is returned when no valid answer was given within MaxAttempts.
var ErrNoAnswer = errors.New("no valid answer")

// Prompter asks yes/no questions over a line-oriented terminal.
// It implements resolver.Decider for junction table decisions.
type Prompter struct {
	in         *bufio.Reader
	out        io.Writer
	styles     *Styles
	defaultYes bool
	pending    chan readResult
}

// NewPrompter creates a prompter reading answers from in and writing
// questions to out. Pressing enter picks the default, which is no.
func NewPrompter(in io.Reader, out io.Writer, styles *Styles) *Prompter {
	if styles == nil {
		styles = DefaultStyles()
	}
	return &Prompter{in: bufio.NewReader(in), out: out, styles: styles}
}

// DefaultYes makes an empty answer mean yes.
func (p *Prompter) DefaultYes() *Prompter {
	p.defaultYes = true
	return p
}

// Confirm displays a yes/no question and reads the answer. End of input
// selects the default.
func (p *Prompter) Confirm(ctx context.Context, message string) (bool, error) {
	suffix := " (y/N)"
	if p.defaultYes {
		suffix = " (Y/n)"
	}

	for attempt := 0; attempt < MaxAttempts; attempt++ {
		fmt.Fprint(p.out, p.styles.Warning.Render("? ")+message+p.styles.Dim.Render(suffix)+p.styles.Primary.Render(": "))

		line, err := p.readLine(ctx)
		if errors.Is(err, io.EOF) && line == "" {
			fmt.Fprintln(p.out)
			return p.defaultYes, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return p.defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, p.styles.Dim.Render("please answer y or n"))
	}
	return false, ErrNoAnswer
}

// DecideJunction asks whether to replace a many-to-many relationship with a
// junction table.
func (p *Prompter) DecideJunction(ctx context.Context, prompt resolver.JunctionPrompt) (bool, error) {
	fmt.Fprintln(p.out, p.styles.Bold.Render("many-to-many: ")+prompt.Source+" n:n "+prompt.Target)
	accept, err := p.Confirm(ctx, prompt.Question())
	if err != nil {
		return false, err
	}
	if accept {
		fmt.Fprintln(p.out, p.styles.Success.Render("creating junction table "+prompt.JunctionName))
	}
	return accept, nil
}

type readResult struct {
	line string
	err  error
}

// readLine reads one line, giving up when ctx is done.
func (p *Prompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// A read abandoned by a cancelled context is picked up by the next call.
	if p.pending == nil {
		done := make(chan readResult, 1)
		go func() {
			line, err := p.in.ReadString('\n')
			done <- readResult{line, err}
		}()
		p.pending = done
	}
	select {
	case r := <-p.pending:
		p.pending = nil
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

var _ resolver.Decider = (*Prompter)(nil)
