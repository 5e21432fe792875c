package modeler

import (
	"github.com/hlop3z/erdlab/internal/model"
)

// AddEntity appends entity to the schema. Always applied.
//
// An entity without a position is placed on the grid. Missing ids, and an
// entity id already taken, are replaced with generated ones; Result.ID holds
// the id actually stored.
func (e *Engine) AddEntity(entity model.Entity) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent := entity.Clone()
	if ent.ID == "" || e.schema.GetEntity(ent.ID) != nil {
		ent.ID = e.freshID(PrefixEntity, e.entityTaken)
	}
	for i := range ent.Attributes {
		if ent.Attributes[i].ID == "" {
			ent.Attributes[i].ID = e.cfg.IDs(PrefixAttribute)
		}
	}
	if ent.Position == nil {
		pos := e.gridPosition(len(e.schema.Entities))
		ent.Position = &pos
	}

	next := e.schema.Clone()
	next.Entities = append(next.Entities, ent)
	return e.commit("addEntity", "Added entity: "+ent.Name, next, ent.ID)
}

// UpdateEntity merges patch into the entity with the given id.
// Unknown ids are a no-op and record nothing.
func (e *Engine) UpdateEntity(id string, patch model.EntityPatch) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.schema.Clone()
	ent := next.GetEntity(id)
	if ent == nil {
		return e.reject("updateEntity", ReasonUnknownEntity)
	}
	patch.Apply(ent)
	return e.commit("updateEntity", "Updated entity: "+id, next, "")
}

// RemoveEntity removes the entity and every relationship touching it.
// Unknown ids are a no-op and record nothing.
func (e *Engine) RemoveEntity(id string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.schema.EntityIndex(id)
	if idx < 0 {
		return e.reject("removeEntity", ReasonUnknownEntity)
	}

	next := model.Schema{
		Entities:      make([]model.Entity, 0, len(e.schema.Entities)-1),
		Relationships: make([]model.Relationship, 0, len(e.schema.Relationships)),
	}
	for i, ent := range e.schema.Entities {
		if i != idx {
			next.Entities = append(next.Entities, ent.Clone())
		}
	}
	for _, r := range e.schema.Relationships {
		if !r.Touches(id) {
			next.Relationships = append(next.Relationships, r)
		}
	}
	return e.commit("removeEntity", "Removed entity: "+id, next, "")
}

// AddRelationship appends rel unless a relationship with the same ordered
// (source, target) pair already exists. Relationships pointing at unknown
// entities, or carrying an invalid cardinality, are rejected too. A missing
// id is generated.
func (e *Engine) AddRelationship(rel model.Relationship) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if reason := e.checkRelationship(rel, ""); reason != "" {
		return e.reject("addRelationship", reason)
	}
	if rel.ID == "" {
		rel.ID = e.freshID(PrefixRelationship, e.relationshipTaken)
	} else if e.schema.GetRelationship(rel.ID) != nil {
		return e.reject("addRelationship", ReasonDuplicateID)
	}

	next := e.schema.Clone()
	next.Relationships = append(next.Relationships, rel)
	return e.commit("addRelationship", "Added relationship", next, rel.ID)
}

// RemoveRelationship removes the relationship with the given id.
// Unknown ids are a no-op and record nothing.
func (e *Engine) RemoveRelationship(id string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.schema.RelationshipIndex(id)
	if idx < 0 {
		return e.reject("removeRelationship", ReasonUnknownRelationship)
	}

	next := e.schema.Clone()
	next.Relationships = append(next.Relationships[:idx], next.Relationships[idx+1:]...)
	return e.commit("removeRelationship", "Removed relationship: "+id, next, "")
}

// UpdateRelationship merges patch into the relationship with the given id and
// records it like every other mutation. Patches that would leave a dangling
// endpoint, a duplicate pair or an invalid cardinality are rejected.
func (e *Engine) UpdateRelationship(id string, patch model.RelationshipPatch) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.schema.Clone()
	rel := next.GetRelationship(id)
	if rel == nil {
		return e.reject("updateRelationship", ReasonUnknownRelationship)
	}
	patch.Apply(rel)
	if reason := e.checkRelationship(*rel, id); reason != "" {
		return e.reject("updateRelationship", reason)
	}
	return e.commit("updateRelationship", "Updated relationship: "+id, next, "")
}

func (e *Engine) entityTaken(id string) bool { return e.schema.GetEntity(id) != nil }

func (e *Engine) relationshipTaken(id string) bool { return e.schema.GetRelationship(id) != nil }

// checkRelationship returns why rel cannot live in the current schema, or "".
// except names the relationship being replaced, if any.
func (e *Engine) checkRelationship(rel model.Relationship, except string) string {
	if e.schema.GetEntity(rel.Source) == nil || e.schema.GetEntity(rel.Target) == nil {
		return ReasonUnknownEntity
	}
	if e.schema.HasPair(rel.Source, rel.Target, except) {
		return ReasonDuplicatePair
	}
	if !rel.Pair().Valid() {
		return ReasonInvalidCardinality
	}
	return ""
}
