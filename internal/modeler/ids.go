package modeler

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hlop3z/erdlab/internal/model"
)

// Id prefixes.
const (
	PrefixEntity       = "entity"
	PrefixAttribute    = "attr"
	PrefixRelationship = "rel"
)

// IDGenerator returns a fresh, unique id starting with prefix.
type IDGenerator func(prefix string) string

// UUIDs is the default generator: "<prefix>-<uuid>".
func UUIDs(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// Sequential returns a generator producing "<prefix>-1", "<prefix>-2", ...
// with an independent counter per prefix. The result is not safe for
// concurrent use outside the engine.
func Sequential() IDGenerator {
	counters := map[string]int{}
	return func(prefix string) string {
		counters[prefix]++
		return fmt.Sprintf("%s-%d", prefix, counters[prefix])
	}
}

// maxIDAttempts bounds how often a generator may repeat a taken id before
// the engine falls back to UUIDs.
const maxIDAttempts = 64

// freshID draws ids from the configured generator until taken reports false.
func (e *Engine) freshID(prefix string, taken func(string) bool) string {
	for range maxIDAttempts {
		if id := e.cfg.IDs(prefix); id != "" && !taken(id) {
			return id
		}
	}
	for {
		if id := UUIDs(prefix); !taken(id) {
			return id
		}
	}
}

// NewEntity returns the default entity created from the toolbar: a single
// "id SERIAL" primary key column.
func NewEntity(name string) model.Entity {
	return model.Entity{
		ID:   UUIDs(PrefixEntity),
		Name: name,
		Attributes: []model.Attribute{{
			ID:         UUIDs(PrefixAttribute),
			Name:       "id",
			Type:       "SERIAL",
			IsPrimary:  true,
			IsNullable: false,
		}},
	}
}

// NewAttribute returns the default column added from the entity editor.
func NewAttribute() model.Attribute {
	return model.Attribute{
		ID:         UUIDs(PrefixAttribute),
		Name:       "newAttribute",
		Type:       "VARCHAR(255)",
		IsNullable: true,
	}
}

// idPart escapes the separator so that distinct endpoint pairs never
// share a relationship id.
var idPart = strings.NewReplacer("%", "%25", "-", "%2D")

// Connect returns the default relationship produced by linking source to
// target. Its id is "rel-<source>-<target>" with hyphens inside either id
// escaped as %2D.
func Connect(source, target string) model.Relationship {
	return model.Relationship{
		ID:                fmt.Sprintf("%s-%s-%s", PrefixRelationship, idPart.Replace(source), idPart.Replace(target)),
		Source:            source,
		Target:            target,
		SourceCardinality: model.One,
		TargetCardinality: model.Many,
	}
}
