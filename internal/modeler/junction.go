package modeler

import (
	"github.com/hlop3z/erdlab/internal/model"
	"github.com/hlop3z/erdlab/internal/strutil"
)

// JunctionColumnType is the type of both junction key columns.
const JunctionColumnType = "INTEGER"

// CreateJunctionTable replaces the relationship with a junction entity named
// "<source>_<target>" and two relationships: source to junction (1:n) and
// junction to target (n:1). The whole replacement is one history entry.
//
// source and target must be the relationship's endpoints. The live copies
// are used, so stale names or positions in the arguments are ignored.
// An unknown relationship is a no-op.
func (e *Engine) CreateJunctionTable(relationshipID string, source, target model.Entity) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	rel := e.schema.GetRelationship(relationshipID)
	if rel == nil {
		return e.reject("createJunctionTable", ReasonUnknownRelationship)
	}
	if rel.Source != source.ID || rel.Target != target.ID {
		return e.reject("createJunctionTable", ReasonEndpointMismatch)
	}
	src := e.schema.GetEntity(rel.Source)
	tgt := e.schema.GetEntity(rel.Target)
	if src == nil || tgt == nil {
		return e.reject("createJunctionTable", ReasonUnknownEntity)
	}

	junction := e.junctionEntity(*src, *tgt)
	inID := e.freshID(PrefixRelationship, e.relationshipTaken)
	outID := e.freshID(PrefixRelationship, func(id string) bool {
		return id == inID || e.relationshipTaken(id)
	})

	next := e.schema.Clone()
	idx := next.RelationshipIndex(relationshipID)
	next.Relationships = append(next.Relationships[:idx], next.Relationships[idx+1:]...)
	next.Entities = append(next.Entities, junction)
	next.Relationships = append(next.Relationships,
		model.Relationship{
			ID:                inID,
			Source:            src.ID,
			Target:            junction.ID,
			SourceCardinality: model.One,
			TargetCardinality: model.Many,
		},
		model.Relationship{
			ID:                outID,
			Source:            junction.ID,
			Target:            tgt.ID,
			SourceCardinality: model.Many,
			TargetCardinality: model.One,
		},
	)

	return e.commit("createJunctionTable", "Created junction table: "+junction.Name, next, junction.ID)
}

func (e *Engine) junctionEntity(src, tgt model.Entity) model.Entity {
	key := func(table string) model.Attribute {
		return model.Attribute{
			ID:        e.cfg.IDs(PrefixAttribute),
			Name:      strutil.FKColumn(strutil.TableIdent(table)),
			Type:      JunctionColumnType,
			IsPrimary: true,
		}
	}

	var pos model.Position
	if src.Position != nil && tgt.Position != nil {
		pos = src.Position.Midpoint(*tgt.Position)
	}
	pos.Y += e.cfg.JunctionOffset

	return model.Entity{
		ID:         e.freshID(PrefixEntity, e.entityTaken),
		Name:       strutil.JunctionName(src.Name, tgt.Name),
		Attributes: []model.Attribute{key(src.Name), key(tgt.Name)},
		Position:   &pos,
	}
}
