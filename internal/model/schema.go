package model

import (
	"fmt"

	"github.com/hlop3z/erdlab/internal/alerr"
)

// Schema is the complete model and the unit of history snapshots.
type Schema struct {
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
}

// Clone returns a deep copy. Nothing in the copy aliases s.
func (s Schema) Clone() Schema {
	out := Schema{}
	if s.Entities != nil {
		out.Entities = make([]Entity, len(s.Entities))
		for i, e := range s.Entities {
			out.Entities[i] = e.Clone()
		}
	}
	if s.Relationships != nil {
		out.Relationships = make([]Relationship, len(s.Relationships))
		copy(out.Relationships, s.Relationships)
	}
	return out
}

// IsEmpty reports whether the schema has no entities and no relationships.
func (s Schema) IsEmpty() bool {
	return len(s.Entities) == 0 && len(s.Relationships) == 0
}

// EntityIndex returns the position of the entity with the given id, or -1.
func (s Schema) EntityIndex(id string) int {
	for i := range s.Entities {
		if s.Entities[i].ID == id {
			return i
		}
	}
	return -1
}

// GetEntity returns the entity with the given id, or nil.
// The pointer aliases s; callers that keep it must Clone.
func (s Schema) GetEntity(id string) *Entity {
	if i := s.EntityIndex(id); i >= 0 {
		return &s.Entities[i]
	}
	return nil
}

// RelationshipIndex returns the position of the relationship with the given id, or -1.
func (s Schema) RelationshipIndex(id string) int {
	for i := range s.Relationships {
		if s.Relationships[i].ID == id {
			return i
		}
	}
	return -1
}

// GetRelationship returns the relationship with the given id, or nil.
func (s Schema) GetRelationship(id string) *Relationship {
	if i := s.RelationshipIndex(id); i >= 0 {
		return &s.Relationships[i]
	}
	return nil
}

// HasPair reports whether a relationship with the ordered (source, target)
// pair exists, ignoring the relationship with id except (may be "").
func (s Schema) HasPair(source, target, except string) bool {
	for _, r := range s.Relationships {
		if r.ID != except && r.Source == source && r.Target == target {
			return true
		}
	}
	return false
}

// Incoming returns relationships whose target is entityID, in stored order.
func (s Schema) Incoming(entityID string) []Relationship {
	var out []Relationship
	for _, r := range s.Relationships {
		if r.Target == entityID {
			out = append(out, r)
		}
	}
	return out
}

// Outgoing returns relationships whose source is entityID, in stored order.
func (s Schema) Outgoing(entityID string) []Relationship {
	var out []Relationship
	for _, r := range s.Relationships {
		if r.Source == entityID {
			out = append(out, r)
		}
	}
	return out
}

// EntityIDs returns entity ids in stored order.
func (s Schema) EntityIDs() []string {
	ids := make([]string, len(s.Entities))
	for i, e := range s.Entities {
		ids[i] = e.ID
	}
	return ids
}

// RelationshipIDs returns relationship ids in stored order.
func (s Schema) RelationshipIDs() []string {
	ids := make([]string, len(s.Relationships))
	for i, r := range s.Relationships {
		ids[i] = r.ID
	}
	return ids
}

// Validate checks the structural invariants the engine maintains:
// unique entity and relationship ids, live endpoints, unique ordered pairs,
// and valid cardinalities. It returns the first violation found.
func (s Schema) Validate() error {
	entities := make(map[string]bool, len(s.Entities))
	for _, e := range s.Entities {
		if entities[e.ID] {
			return invariant("duplicate entity id").WithEntity(e.ID)
		}
		entities[e.ID] = true
	}

	rels := make(map[string]bool, len(s.Relationships))
	pairs := make(map[string]bool, len(s.Relationships))
	for _, r := range s.Relationships {
		if rels[r.ID] {
			return invariant("duplicate relationship id").WithRelationship(r.ID)
		}
		rels[r.ID] = true

		if !entities[r.Source] {
			return invariant("relationship source does not exist").
				WithRelationship(r.ID).WithEntity(r.Source)
		}
		if !entities[r.Target] {
			return invariant("relationship target does not exist").
				WithRelationship(r.ID).WithEntity(r.Target)
		}

		key := fmt.Sprintf("%s\x00%s", r.Source, r.Target)
		if pairs[key] {
			return invariant("duplicate (source, target) pair").
				WithRelationship(r.ID).
				With("source", r.Source).
				With("target", r.Target)
		}
		pairs[key] = true

		if !r.Pair().Valid() {
			return invariant("invalid cardinality").
				WithRelationship(r.ID).
				With("cardinality", r.Pair().String())
		}
	}
	return nil
}

func invariant(msg string) *alerr.Error {
	return alerr.New(alerr.ErrInvariant, msg)
}
