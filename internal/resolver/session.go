// Package resolver implements the cardinality edit protocol for a single
// relationship, including the decision to decompose a many-to-many
// relationship into a junction entity.
//
// A Session holds the in-progress edit. It never holds the engine's lock, so
// unrelated commands stay legal while a junction decision is pending.
package resolver

import (
	"sync"

	"github.com/hlop3z/erdlab/internal/alerr"
	"github.com/hlop3z/erdlab/internal/model"
	"github.com/hlop3z/erdlab/internal/modeler"
	"github.com/hlop3z/erdlab/internal/strutil"
)

// State is a session's position in the edit protocol.
type State int

const (
	// Editing holds a proposed cardinality pair that has not been confirmed.
	Editing State = iota
	// PendingJunctionDecision waits for a yes/no on junction synthesis.
	PendingJunctionDecision
	// Resolved means the edit was applied.
	Resolved
	// Cancelled means the edit was discarded without mutation.
	Cancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case PendingJunctionDecision:
		return "pending_junction_decision"
	case Resolved:
		return "resolved"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Resolved || s == Cancelled
}

// Engine is the subset of the mutation engine a session drives.
type Engine interface {
	Entity(id string) (model.Entity, bool)
	Relationship(id string) (model.Relationship, bool)
	RelationshipIDs() []string
	UpdateRelationship(id string, patch model.RelationshipPatch) modeler.Result
	CreateJunctionTable(relationshipID string, source, target model.Entity) modeler.Result
}

// Session is one cardinality edit of one relationship. It is safe for
// concurrent use, though a session is normally driven by a single caller.
type Session struct {
	mu       sync.Mutex
	eng      Engine
	relID    string
	original model.Pair
	proposed model.Pair
	state    State
	result   modeler.Result
}

// Begin opens an edit session on the relationship. The proposal starts as the
// relationship's persisted pair.
func Begin(eng Engine, relationshipID string) (*Session, error) {
	rel, ok := eng.Relationship(relationshipID)
	if !ok {
		return nil, alerr.NotFound(alerr.ErrRelationshipNotFound, "relationship", relationshipID, eng.RelationshipIDs())
	}
	return &Session{
		eng:      eng,
		relID:    relationshipID,
		original: rel.Pair(),
		proposed: rel.Pair(),
		state:    Editing,
	}, nil
}

// RelationshipID returns the id of the relationship being edited.
func (s *Session) RelationshipID() string {
	return s.relID
}

// State returns the current protocol state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Original returns the pair persisted when the session began.
func (s *Session) Original() model.Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.original
}

// Proposed returns the pair currently proposed.
func (s *Session) Proposed() model.Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proposed
}

// Result returns the engine result of the applying command, once Resolved.
func (s *Session) Result() modeler.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Propose replaces the proposed pair. Only legal while Editing.
func (s *Session) Propose(p model.Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect("propose", Editing); err != nil {
		return err
	}
	if !p.Valid() {
		return alerr.New(alerr.ErrInvalidCardinality, "invalid cardinality pair").
			WithRelationship(s.relID).
			With("cardinality", p.String()).
			WithHelp("each side must be one of 0, 1, n")
	}
	s.proposed = p
	return nil
}

// Confirm commits the proposal. A many-to-many proposal moves the session to
// PendingJunctionDecision without mutating anything; any other proposal is
// applied directly and resolves the session.
func (s *Session) Confirm() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect("confirm", Editing); err != nil {
		return s.state, err
	}
	if s.proposed.ManyToMany() {
		if _, ok := s.eng.Relationship(s.relID); !ok {
			return s.stale()
		}
		s.state = PendingJunctionDecision
		return s.state, nil
	}

	res := s.eng.UpdateRelationship(s.relID, model.CardinalityPatch(s.proposed))
	if !res.Applied {
		if res.Reason == modeler.ReasonUnknownRelationship {
			return s.stale()
		}
		s.state = Cancelled
		return s.state, alerr.New(alerr.ErrInvariant, "cardinality update rejected").
			WithRelationship(s.relID).
			With("reason", res.Reason)
	}
	s.result = res
	s.state = Resolved
	return s.state, nil
}

// Decide answers the junction prompt. Accepting synthesizes the junction
// entity and resolves; declining discards the proposal and cancels.
func (s *Session) Decide(accept bool) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect("decide", PendingJunctionDecision); err != nil {
		return s.state, err
	}
	if !accept {
		s.proposed = s.original
		s.state = Cancelled
		return s.state, nil
	}

	rel, ok := s.eng.Relationship(s.relID)
	if !ok {
		return s.stale()
	}
	src, okSrc := s.eng.Entity(rel.Source)
	tgt, okTgt := s.eng.Entity(rel.Target)
	if !okSrc || !okTgt {
		return s.stale()
	}

	res := s.eng.CreateJunctionTable(s.relID, src, tgt)
	if !res.Applied {
		return s.stale()
	}
	s.result = res
	s.state = Resolved
	return s.state, nil
}

// Cancel discards the edit. Legal before resolution; cancelling twice is a no-op.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Editing, PendingJunctionDecision:
		s.proposed = s.original
		s.state = Cancelled
		return nil
	case Cancelled:
		return nil
	default:
		return s.illegal("cancel")
	}
}

// Prompt describes the pending junction decision. Only meaningful while
// PendingJunctionDecision.
func (s *Session) Prompt() (JunctionPrompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect("prompt", PendingJunctionDecision); err != nil {
		return JunctionPrompt{}, err
	}
	rel, ok := s.eng.Relationship(s.relID)
	if !ok {
		return JunctionPrompt{}, alerr.New(alerr.ErrStaleSession, "relationship no longer exists").WithRelationship(s.relID)
	}
	src, _ := s.eng.Entity(rel.Source)
	tgt, _ := s.eng.Entity(rel.Target)
	return JunctionPrompt{
		RelationshipID: s.relID,
		Source:         src.Name,
		Target:         tgt.Name,
		JunctionName:   strutil.JunctionName(src.Name, tgt.Name),
	}, nil
}

func (s *Session) expect(op string, want State) error {
	if s.state != want {
		return s.illegal(op)
	}
	return nil
}

func (s *Session) illegal(op string) error {
	return alerr.Newf(alerr.ErrSessionState, "cannot %s in state %s", op, s.state).
		WithRelationship(s.relID)
}

func (s *Session) stale() (State, error) {
	s.state = Cancelled
	return s.state, alerr.New(alerr.ErrStaleSession, "relationship no longer exists").
		WithRelationship(s.relID).
		WithNote("it was removed while the edit was open")
}
