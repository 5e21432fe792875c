package resolver

import (
	"context"
	"fmt"

	"github.com/hlop3z/erdlab/internal/model"
	"github.com/hlop3z/erdlab/internal/modeler"
)

// JunctionPrompt is what a Decider is asked about.
type JunctionPrompt struct {
	RelationshipID string `json:"relationshipId"`
	Source         string `json:"source"`
	Target         string `json:"target"`
	JunctionName   string `json:"junctionName"`
}

// Question returns the prompt as a yes/no question.
func (p JunctionPrompt) Question() string {
	return fmt.Sprintf("%s and %s are many-to-many. Create junction table %q?", p.Source, p.Target, p.JunctionName)
}

// Decider answers junction prompts. Implementations may block, for example
// on user input; they should return when ctx is done.
type Decider interface {
	DecideJunction(ctx context.Context, p JunctionPrompt) (bool, error)
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(ctx context.Context, p JunctionPrompt) (bool, error)

// DecideJunction calls f.
func (f DeciderFunc) DecideJunction(ctx context.Context, p JunctionPrompt) (bool, error) {
	return f(ctx, p)
}

// Always returns a Decider with a fixed answer.
func Always(accept bool) Decider {
	return DeciderFunc(func(context.Context, JunctionPrompt) (bool, error) {
		return accept, nil
	})
}

var (
	// Accept always creates the junction table.
	Accept = Always(true)
	// Decline always keeps the relationship unchanged.
	Decline = Always(false)
)

// Outcome is the result of a complete edit.
type Outcome struct {
	State  State          `json:"state"`
	Result modeler.Result `json:"result"`
}

// Resolve runs a whole edit: begin, propose pair, confirm and, for n:n, ask d.
// If d fails or ctx ends while the decision is pending, the session is
// cancelled and the error returned.
func Resolve(ctx context.Context, eng Engine, relationshipID string, pair model.Pair, d Decider) (Outcome, error) {
	s, err := Begin(eng, relationshipID)
	if err != nil {
		return Outcome{State: Cancelled}, err
	}
	if err := s.Propose(pair); err != nil {
		_ = s.Cancel()
		return Outcome{State: Cancelled}, err
	}

	state, err := s.Confirm()
	if err != nil || state != PendingJunctionDecision {
		return Outcome{State: state, Result: s.Result()}, err
	}

	prompt, err := s.Prompt()
	if err != nil {
		_ = s.Cancel()
		return Outcome{State: Cancelled}, err
	}
	accept, err := d.DecideJunction(ctx, prompt)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		_ = s.Cancel()
		return Outcome{State: Cancelled}, err
	}

	state, err = s.Decide(accept)
	return Outcome{State: state, Result: s.Result()}, err
}
