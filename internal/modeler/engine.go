// Package modeler is the mutation engine: the single owner of the live schema
// and its history log.
//
// Every command is atomic. It either installs a new schema and records exactly
// one history entry, or leaves both untouched. Commands never fail; they
// report what happened through Result.
package modeler

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/hlop3z/erdlab/internal/history"
	"github.com/hlop3z/erdlab/internal/model"
	"github.com/hlop3z/erdlab/internal/sqlgen"
)

// InitialAction labels the entry the engine seeds its history with.
const InitialAction = "Initial state"

// Rejection reasons reported in Result.Reason.
const (
	ReasonUnknownEntity       = "unknown entity"
	ReasonUnknownRelationship = "unknown relationship"
	ReasonDuplicatePair       = "duplicate (source, target) pair"
	ReasonDuplicateID         = "duplicate relationship id"
	ReasonInvalidCardinality  = "invalid cardinality"
	ReasonEndpointMismatch    = "entities do not match relationship endpoints"
	ReasonNothingToUndo       = "nothing to undo"
	ReasonNothingToRedo       = "nothing to redo"
)

// Result reports the outcome of a command.
type Result struct {
	// Applied is true when the schema changed and a history entry was recorded.
	// Undo and redo set it when the cursor moved.
	Applied bool `json:"applied"`

	// Action is the history label of an applied command.
	Action string `json:"action,omitempty"`

	// Reason explains why a command was not applied.
	Reason string `json:"reason,omitempty"`

	// ID is the id of the entity or relationship a command created.
	ID string `json:"id,omitempty"`
}

// Engine serializes all commands over one schema and history pair.
// It is safe for concurrent use.
type Engine struct {
	mu      sync.RWMutex
	schema  model.Schema
	history *history.Log
	cfg     Config
	log     zerolog.Logger
}

// New creates an engine holding an empty schema. The history is seeded with
// the empty schema so undoing every command returns to it.
func New(opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.normalize()

	e := &Engine{
		history: history.New(
			history.WithLimit(cfg.HistoryLimit),
			history.WithClock(cfg.Now),
		),
		cfg: cfg,
		log: cfg.Logger.With().Str("component", "modeler").Logger(),
	}
	e.history.Record(InitialAction, e.schema)
	return e
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

// Snapshot returns a deep copy of the live schema.
func (e *Engine) Snapshot() model.Schema {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.schema.Clone()
}

// Entities returns a copy of the live entities in stored order.
func (e *Engine) Entities() []model.Entity {
	return e.Snapshot().Entities
}

// Relationships returns a copy of the live relationships in stored order.
func (e *Engine) Relationships() []model.Relationship {
	return e.Snapshot().Relationships
}

// Entity returns a copy of the entity with the given id.
func (e *Engine) Entity(id string) (model.Entity, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if ent := e.schema.GetEntity(id); ent != nil {
		return ent.Clone(), true
	}
	return model.Entity{}, false
}

// Relationship returns a copy of the relationship with the given id.
func (e *Engine) Relationship(id string) (model.Relationship, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if r := e.schema.GetRelationship(id); r != nil {
		return *r, true
	}
	return model.Relationship{}, false
}

// EntityIDs returns the live entity ids in stored order.
func (e *Engine) EntityIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.schema.EntityIDs()
}

// RelationshipIDs returns the live relationship ids in stored order.
func (e *Engine) RelationshipIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.schema.RelationshipIDs()
}

// History returns a copy of every retained history entry, oldest first.
func (e *Engine) History() []history.Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.Entries()
}

// Cursor returns the index of the active history entry.
func (e *Engine) Cursor() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.Cursor()
}

// CanUndo reports whether Undo would change the schema.
func (e *Engine) CanUndo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.CanUndo()
}

// CanRedo reports whether Redo would change the schema.
func (e *Engine) CanRedo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.CanRedo()
}

// GenerateSQL renders the live schema as a table-definition script.
// It has no effect on history.
func (e *Engine) GenerateSQL() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return sqlgen.Generate(e.schema)
}

// -----------------------------------------------------------------------------
// History navigation
// -----------------------------------------------------------------------------

// Undo installs the previous snapshot. No-op at the oldest entry.
func (e *Engine) Undo() Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.history.Undo()
	if !ok {
		return e.reject("undo", ReasonNothingToUndo)
	}
	e.schema = state
	return e.moved("undo")
}

// Redo installs the next snapshot. No-op at the newest entry.
func (e *Engine) Redo() Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.history.Redo()
	if !ok {
		return e.reject("redo", ReasonNothingToRedo)
	}
	e.schema = state
	return e.moved("redo")
}

// -----------------------------------------------------------------------------
// Internal helpers (callers hold e.mu)
// -----------------------------------------------------------------------------

// commit installs next as the live schema and records it under action.
func (e *Engine) commit(cmd, action string, next model.Schema, id string) Result {
	e.schema = next
	e.history.Record(action, next)

	e.log.Debug().
		Str("command", cmd).
		Str("action", action).
		Bool("applied", true).
		Int("entities", len(next.Entities)).
		Int("relationships", len(next.Relationships)).
		Int("cursor", e.history.Cursor()).
		Msg("command applied")

	return Result{Applied: true, Action: action, ID: id}
}

func (e *Engine) moved(cmd string) Result {
	cur, _ := e.history.Current()

	e.log.Debug().
		Str("command", cmd).
		Str("action", cur.Action).
		Bool("applied", true).
		Int("entities", len(e.schema.Entities)).
		Int("relationships", len(e.schema.Relationships)).
		Int("cursor", e.history.Cursor()).
		Msg("history moved")

	return Result{Applied: true, Action: cur.Action}
}

func (e *Engine) reject(cmd, reason string) Result {
	e.log.Debug().
		Str("command", cmd).
		Bool("applied", false).
		Str("reason", reason).
		Int("entities", len(e.schema.Entities)).
		Int("relationships", len(e.schema.Relationships)).
		Int("cursor", e.history.Cursor()).
		Msg("command rejected")

	return Result{Reason: reason}
}
