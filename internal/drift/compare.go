package drift

import (
	"sort"

	"github.com/hlop3z/erdlab/internal/history"
)

// Comparison represents the differences between two schema hashes.
type Comparison struct {
	Match                 bool                   `json:"match"`
	BeforeRoot            string                 `json:"before"`
	AfterRoot             string                 `json:"after"`
	AddedEntities         []string               `json:"addedEntities,omitempty"`
	RemovedEntities       []string               `json:"removedEntities,omitempty"`
	EntityDiffs           map[string]*EntityDiff `json:"entityDiffs,omitempty"`
	AddedRelationships    []string               `json:"addedRelationships,omitempty"`
	RemovedRelationships  []string               `json:"removedRelationships,omitempty"`
	ModifiedRelationships []string               `json:"modifiedRelationships,omitempty"`
	Reordered             bool                   `json:"reordered,omitempty"`
}

// EntityDiff represents differences within one entity.
type EntityDiff struct {
	ID                 string   `json:"id"`
	Renamed            bool     `json:"renamed,omitempty"`
	Moved              bool     `json:"moved,omitempty"`
	AddedAttributes    []string `json:"addedAttributes,omitempty"`
	RemovedAttributes  []string `json:"removedAttributes,omitempty"`
	ModifiedAttributes []string `json:"modifiedAttributes,omitempty"`
}

// HasDifferences returns true if the entity has any differences.
func (d *EntityDiff) HasDifferences() bool {
	return d.Renamed || d.Moved ||
		len(d.AddedAttributes) > 0 ||
		len(d.RemovedAttributes) > 0 ||
		len(d.ModifiedAttributes) > 0
}

// Compare reports how after differs from before.
func Compare(before, after *SchemaHash) *Comparison {
	result := &Comparison{
		Match:       before.Root == after.Root,
		BeforeRoot:  before.Root,
		AfterRoot:   after.Root,
		EntityDiffs: make(map[string]*EntityDiff),
	}

	if result.Match {
		return result
	}

	for id := range after.Entities {
		if _, ok := before.Entities[id]; !ok {
			result.AddedEntities = append(result.AddedEntities, id)
		}
	}
	for id, b := range before.Entities {
		a, ok := after.Entities[id]
		if !ok {
			result.RemovedEntities = append(result.RemovedEntities, id)
			continue
		}
		if a.Hash != b.Hash {
			if diff := compareEntityHashes(b, a); diff.HasDifferences() {
				result.EntityDiffs[id] = diff
			}
		}
	}

	for id := range after.Relationships {
		if _, ok := before.Relationships[id]; !ok {
			result.AddedRelationships = append(result.AddedRelationships, id)
		}
	}
	for id, b := range before.Relationships {
		a, ok := after.Relationships[id]
		if !ok {
			result.RemovedRelationships = append(result.RemovedRelationships, id)
		} else if a != b {
			result.ModifiedRelationships = append(result.ModifiedRelationships, id)
		}
	}

	result.Reordered = reordered(before.Order, after.Order)

	sort.Strings(result.AddedEntities)
	sort.Strings(result.RemovedEntities)
	sort.Strings(result.AddedRelationships)
	sort.Strings(result.RemovedRelationships)
	sort.Strings(result.ModifiedRelationships)

	return result
}

// compareEntityHashes compares two entity hashes and returns differences.
func compareEntityHashes(before, after *EntityHash) *EntityDiff {
	diff := &EntityDiff{
		ID:      before.ID,
		Renamed: before.Name != after.Name,
		Moved:   before.Position != after.Position,
	}

	for id, h := range before.Attributes {
		ah, ok := after.Attributes[id]
		if !ok {
			diff.RemovedAttributes = append(diff.RemovedAttributes, id)
		} else if h != ah {
			diff.ModifiedAttributes = append(diff.ModifiedAttributes, id)
		}
	}
	for id := range after.Attributes {
		if _, ok := before.Attributes[id]; !ok {
			diff.AddedAttributes = append(diff.AddedAttributes, id)
		}
	}

	sort.Strings(diff.AddedAttributes)
	sort.Strings(diff.RemovedAttributes)
	sort.Strings(diff.ModifiedAttributes)

	return diff
}

// reordered reports whether the entities present in both orders appear in a
// different relative order.
func reordered(before, after []string) bool {
	inAfter := make(map[string]bool, len(after))
	for _, id := range after {
		inAfter[id] = true
	}
	inBefore := make(map[string]bool, len(before))
	for _, id := range before {
		inBefore[id] = true
	}

	var b, a []string
	for _, id := range before {
		if inAfter[id] {
			b = append(b, id)
		}
	}
	for _, id := range after {
		if inBefore[id] {
			a = append(a, id)
		}
	}
	for i := range b {
		if b[i] != a[i] {
			return true
		}
	}
	return false
}

// Step is one history entry annotated with its fingerprint and its
// differences from the previous entry.
type Step struct {
	Index  int
	Entry  history.Entry
	Hash   *SchemaHash
	Change *Comparison // nil for the first entry
}

// Timeline fingerprints every history entry and diffs it with its predecessor.
func Timeline(entries []history.Entry) ([]Step, error) {
	steps := make([]Step, 0, len(entries))
	var prev *SchemaHash
	for i, e := range entries {
		h, err := ComputeSchemaHash(e.State)
		if err != nil {
			return nil, err
		}
		step := Step{Index: i, Entry: e, Hash: h}
		if prev != nil {
			step.Change = Compare(prev, h)
		}
		steps = append(steps, step)
		prev = h
	}
	return steps, nil
}
