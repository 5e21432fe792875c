package model

// EntityPatch is a partial change merged into an Entity.
// Nil fields are left untouched. The id is immutable.
type EntityPatch struct {
	Name       *string
	Attributes []Attribute // nil = unchanged, empty non-nil = clear
	Position   *Position
}

// IsEmpty reports whether the patch changes nothing.
func (p EntityPatch) IsEmpty() bool {
	return p.Name == nil && p.Attributes == nil && p.Position == nil
}

// Apply merges the patch into e.
func (p EntityPatch) Apply(e *Entity) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Attributes != nil {
		e.Attributes = make([]Attribute, len(p.Attributes))
		copy(e.Attributes, p.Attributes)
	}
	if p.Position != nil {
		pos := *p.Position
		e.Position = &pos
	}
}

// RelationshipPatch is a partial change merged into a Relationship.
type RelationshipPatch struct {
	Source            *string
	Target            *string
	SourceCardinality *Cardinality
	TargetCardinality *Cardinality
}

// CardinalityPatch builds a patch that sets both cardinalities.
func CardinalityPatch(p Pair) RelationshipPatch {
	src, tgt := p.Source, p.Target
	return RelationshipPatch{SourceCardinality: &src, TargetCardinality: &tgt}
}

// IsEmpty reports whether the patch changes nothing.
func (p RelationshipPatch) IsEmpty() bool {
	return p.Source == nil && p.Target == nil &&
		p.SourceCardinality == nil && p.TargetCardinality == nil
}

// Apply merges the patch into r.
func (p RelationshipPatch) Apply(r *Relationship) {
	if p.Source != nil {
		r.Source = *p.Source
	}
	if p.Target != nil {
		r.Target = *p.Target
	}
	if p.SourceCardinality != nil {
		r.SourceCardinality = *p.SourceCardinality
	}
	if p.TargetCardinality != nil {
		r.TargetCardinality = *p.TargetCardinality
	}
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
