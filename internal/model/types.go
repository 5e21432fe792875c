// Package model defines the entity-relationship schema: entities with ordered
// attributes, and relationships that refer to entities by id.
package model

// Attribute is a modeled table column. Owned by exactly one Entity.
type Attribute struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"` // free-form label, e.g. "VARCHAR(255)"
	IsPrimary  bool   `json:"isPrimary"`
	IsNullable bool   `json:"isNullable"`
}

// Position is a canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Midpoint returns the point halfway between p and q.
func (p Position) Midpoint(q Position) Position {
	return Position{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Entity is a modeled table.
// A nil Position means "not yet placed"; entities held by the engine always
// carry one.
type Entity struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Attributes []Attribute `json:"attributes"`
	Position   *Position   `json:"position,omitempty"`
}

// GetAttribute returns the attribute with the given id, or nil.
func (e *Entity) GetAttribute(id string) *Attribute {
	for i := range e.Attributes {
		if e.Attributes[i].ID == id {
			return &e.Attributes[i]
		}
	}
	return nil
}

// PrimaryKey returns the first attribute flagged primary in stored order, or nil.
func (e *Entity) PrimaryKey() *Attribute {
	for i := range e.Attributes {
		if e.Attributes[i].IsPrimary {
			return &e.Attributes[i]
		}
	}
	return nil
}

// PrimaryKeys returns every primary attribute in stored order.
func (e *Entity) PrimaryKeys() []Attribute {
	var pks []Attribute
	for _, a := range e.Attributes {
		if a.IsPrimary {
			pks = append(pks, a)
		}
	}
	return pks
}

// Clone returns a deep copy of the entity.
func (e Entity) Clone() Entity {
	out := e
	if e.Attributes != nil {
		out.Attributes = make([]Attribute, len(e.Attributes))
		copy(out.Attributes, e.Attributes)
	}
	if e.Position != nil {
		p := *e.Position
		out.Position = &p
	}
	return out
}

// Relationship is a directed association between two entities.
// Source and Target are weak references (ids) into the schema's entities.
type Relationship struct {
	ID                string      `json:"id"`
	Source            string      `json:"source"`
	Target            string      `json:"target"`
	SourceCardinality Cardinality `json:"sourceCardinality"`
	TargetCardinality Cardinality `json:"targetCardinality"`
}

// Pair returns the relationship's cardinality pair.
func (r Relationship) Pair() Pair {
	return Pair{Source: r.SourceCardinality, Target: r.TargetCardinality}
}

// Touches reports whether the relationship has entityID as either endpoint.
func (r Relationship) Touches(entityID string) bool {
	return r.Source == entityID || r.Target == entityID
}
