// Package drift fingerprints schema snapshots with merkle trees and reports
// the structural differences between two snapshots.
package drift

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cbergoon/merkletree"

	"github.com/hlop3z/erdlab/internal/alerr"
	"github.com/hlop3z/erdlab/internal/model"
)

// SchemaHash represents the merkle root hash of a schema.
type SchemaHash struct {
	Root          string                 // Root hash of the entire schema
	Entities      map[string]*EntityHash // Entity id -> hash, for drill-down
	Relationships map[string]string      // Relationship id -> hash
	Order         []string               // Entity ids in stored order
}

// EntityHash represents the hash of a single entity.
type EntityHash struct {
	ID         string
	Name       string
	Hash       string            // Hash of name, attributes and position
	Shape      string            // Hash of name and attributes only
	Position   string            // Hash of position only
	Attributes map[string]string // Attribute id -> hash
}

// leaf implements merkletree.Content for one entity or relationship.
type leaf struct {
	kind string
	id   string
	hash string
}

func (l leaf) CalculateHash() ([]byte, error) {
	h := sha256.Sum256([]byte(l.kind + ":" + l.id + ":" + l.hash))
	return h[:], nil
}

func (l leaf) Equals(other merkletree.Content) (bool, error) {
	o, ok := other.(leaf)
	if !ok {
		return false, nil
	}
	return l.kind == o.kind && l.id == o.id && l.hash == o.hash, nil
}

// ComputeSchemaHash computes the merkle tree hash for a schema.
// Leaves follow stored order, entities first, so reordering changes the root.
func ComputeSchemaHash(s model.Schema) (*SchemaHash, error) {
	result := &SchemaHash{
		Entities:      make(map[string]*EntityHash, len(s.Entities)),
		Relationships: make(map[string]string, len(s.Relationships)),
	}

	if s.IsEmpty() {
		result.Root = emptyHash()
		return result, nil
	}

	contents := make([]merkletree.Content, 0, len(s.Entities)+len(s.Relationships))
	for _, ent := range s.Entities {
		eh := computeEntityHash(ent)
		result.Entities[ent.ID] = eh
		result.Order = append(result.Order, ent.ID)
		contents = append(contents, leaf{kind: "entity", id: ent.ID, hash: eh.Hash})
	}
	for _, rel := range s.Relationships {
		rh := computeRelationshipHash(rel)
		result.Relationships[rel.ID] = rh
		contents = append(contents, leaf{kind: "relationship", id: rel.ID, hash: rh})
	}

	tree, err := merkletree.NewTree(contents)
	if err != nil {
		return nil, alerr.Wrap(alerr.EInternalError, err, "failed to build merkle tree")
	}

	result.Root = hex.EncodeToString(tree.MerkleRoot())
	return result, nil
}

// MustHash is ComputeSchemaHash for callers that only need the root.
// A tree construction failure yields "".
func MustHash(s model.Schema) string {
	h, err := ComputeSchemaHash(s)
	if err != nil {
		return ""
	}
	return h.Root
}

// computeEntityHash computes the hash for a single entity.
// Attribute order is significant: it is the column order of the table.
func computeEntityHash(ent model.Entity) *EntityHash {
	result := &EntityHash{
		ID:         ent.ID,
		Name:       ent.Name,
		Attributes: make(map[string]string, len(ent.Attributes)),
	}

	attrHashes := make([]string, 0, len(ent.Attributes))
	for i, attr := range ent.Attributes {
		h := computeAttributeHash(attr)
		key := attr.ID
		if key == "" {
			key = fmt.Sprintf("#%d", i)
		}
		result.Attributes[key] = h
		attrHashes = append(attrHashes, key+":"+h)
	}

	result.Shape = hashString(fmt.Sprintf("entity:%s|name:%s|attributes:[%s]",
		ent.ID, ent.Name, strings.Join(attrHashes, ",")))

	pos := "unplaced"
	if ent.Position != nil {
		pos = fmt.Sprintf("%g,%g", ent.Position.X, ent.Position.Y)
	}
	result.Position = hashString("position:" + pos)
	result.Hash = hashString(result.Shape + "|" + result.Position)

	return result
}

// computeAttributeHash computes a deterministic hash for an attribute.
func computeAttributeHash(a model.Attribute) string {
	return hashString(fmt.Sprintf("name:%s|type:%s|pk:%v|nullable:%v",
		a.Name, a.Type, a.IsPrimary, a.IsNullable))
}

// computeRelationshipHash computes a deterministic hash for a relationship.
func computeRelationshipHash(r model.Relationship) string {
	return hashString(fmt.Sprintf("source:%s|target:%s|cardinality:%s",
		r.Source, r.Target, r.Pair()))
}

// hashString computes SHA256 hash of a string and returns hex encoding.
func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// emptyHash returns a consistent hash for empty schemas.
func emptyHash() string {
	return hashString("empty_schema")
}
