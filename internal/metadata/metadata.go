// Package metadata builds a JSON description of a model: tables with their
// columns and keys, the foreign keys the SQL script will carry, unresolved
// many-to-many relationships and detected junction tables.
// It exists so external tools can audit a model without parsing SQL.
package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/hlop3z/erdlab/internal/alerr"
	"github.com/hlop3z/erdlab/internal/drift"
	"github.com/hlop3z/erdlab/internal/model"
	"github.com/hlop3z/erdlab/internal/strutil"
)

// Version of the metadata format.
const Version = "1.0"

// Metadata holds all metadata for a model.
type Metadata struct {
	// Version of the metadata format
	Version string `json:"version"`

	// Generated timestamp
	GeneratedAt time.Time `json:"generated_at"`

	// Merkle root of the model
	Fingerprint string `json:"fingerprint"`

	// Tables in entity order
	Tables []*TableMeta `json:"tables"`

	// Relationships in stored order
	Relationships []*RelationshipMeta `json:"relationships"`

	// n:n relationships not yet decomposed into a junction table
	ManyToMany []*ManyToManyMeta `json:"many_to_many"`

	// Entities that decompose an n:n relationship
	JoinTables []*JoinTableMeta `json:"join_tables"`
}

// TableMeta holds metadata for a single table.
type TableMeta struct {
	EntityID    string            `json:"entity_id"`
	Name        string            `json:"name"`
	SQLName     string            `json:"sql_name"`
	Columns     []string          `json:"columns"`
	PrimaryKey  []string          `json:"primary_key"`
	ForeignKeys []*ForeignKeyMeta `json:"foreign_keys,omitempty"`
}

// ForeignKeyMeta is a foreign key column emitted for an incoming relationship.
type ForeignKeyMeta struct {
	Column       string `json:"column"`
	Type         string `json:"type"`
	RefTable     string `json:"ref_table"`
	RefColumn    string `json:"ref_column"`
	Relationship string `json:"relationship"`
}

// RelationshipMeta describes one relationship by table names.
type RelationshipMeta struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Target      string `json:"target"`
	Cardinality string `json:"cardinality"`
}

// ManyToManyMeta tracks an n:n relationship that still needs a junction table.
type ManyToManyMeta struct {
	Relationship string `json:"relationship"`
	Source       string `json:"source"`
	Target       string `json:"target"`

	// Name the junction table would get
	JoinTable string `json:"join_table"`
}

// JoinTableMeta describes a detected junction table A -(1:n)-> J -(n:1)-> B.
type JoinTableMeta struct {
	Name        string `json:"name"`
	EntityID    string `json:"entity_id"`
	SourceTable string `json:"source_table"`
	TargetTable string `json:"target_table"`
	SourceFK    string `json:"source_fk"`
	TargetFK    string `json:"target_fk"`
}

// New creates a new empty Metadata instance.
func New() *Metadata {
	return &Metadata{
		Version:       Version,
		GeneratedAt:   time.Now().UTC(),
		Tables:        make([]*TableMeta, 0),
		Relationships: make([]*RelationshipMeta, 0),
		ManyToMany:    make([]*ManyToManyMeta, 0),
		JoinTables:    make([]*JoinTableMeta, 0),
	}
}

// Build collects metadata for s.
func Build(s model.Schema) *Metadata {
	m := New()
	m.Fingerprint = drift.MustHash(s)

	for _, ent := range s.Entities {
		m.addTable(s, ent)
	}

	for _, rel := range s.Relationships {
		src, tgt := tableName(s, rel.Source), tableName(s, rel.Target)
		m.Relationships = append(m.Relationships, &RelationshipMeta{
			ID:          rel.ID,
			Source:      src,
			Target:      tgt,
			Cardinality: rel.Pair().String(),
		})
		if rel.Pair().ManyToMany() {
			m.ManyToMany = append(m.ManyToMany, &ManyToManyMeta{
				Relationship: rel.ID,
				Source:       src,
				Target:       tgt,
				JoinTable:    src + "_" + tgt,
			})
		}
	}

	for _, ent := range s.Entities {
		if jt := detectJoinTable(s, ent); jt != nil {
			m.JoinTables = append(m.JoinTables, jt)
		}
	}

	return m
}

// Table returns the table metadata for an entity id, or nil.
func (m *Metadata) Table(entityID string) *TableMeta {
	for _, t := range m.Tables {
		if t.EntityID == entityID {
			return t
		}
	}
	return nil
}

// addTable adds a table to the metadata.
func (m *Metadata) addTable(s model.Schema, ent model.Entity) {
	meta := &TableMeta{
		EntityID:   ent.ID,
		Name:       ent.Name,
		SQLName:    strutil.TableIdent(ent.Name),
		Columns:    make([]string, 0, len(ent.Attributes)),
		PrimaryKey: make([]string, 0, 1),
	}

	for _, attr := range ent.Attributes {
		col := strutil.ColumnIdent(attr.Name)
		meta.Columns = append(meta.Columns, col)
		if attr.IsPrimary {
			meta.PrimaryKey = append(meta.PrimaryKey, col)
		}
	}

	for _, rel := range s.Incoming(ent.ID) {
		src := s.GetEntity(rel.Source)
		if src == nil {
			continue
		}
		pk := src.PrimaryKey()
		if pk == nil {
			continue
		}
		srcTable := strutil.TableIdent(src.Name)
		fk := &ForeignKeyMeta{
			Column:       strutil.FKColumn(srcTable),
			Type:         pk.Type,
			RefTable:     srcTable,
			RefColumn:    strutil.ColumnIdent(pk.Name),
			Relationship: rel.ID,
		}
		meta.Columns = append(meta.Columns, fk.Column)
		meta.ForeignKeys = append(meta.ForeignKeys, fk)
	}

	m.Tables = append(m.Tables, meta)
}

// detectJoinTable reports ent as a junction table when exactly one 1:n
// relationship points at it, exactly one n:1 relationship leaves it, and its
// primary key has at least two columns.
func detectJoinTable(s model.Schema, ent model.Entity) *JoinTableMeta {
	in, out := s.Incoming(ent.ID), s.Outgoing(ent.ID)
	if len(in) != 1 || len(out) != 1 || len(ent.PrimaryKeys()) < 2 {
		return nil
	}
	if in[0].Pair() != (model.Pair{Source: model.One, Target: model.Many}) ||
		out[0].Pair() != (model.Pair{Source: model.Many, Target: model.One}) {
		return nil
	}

	src, tgt := tableName(s, in[0].Source), tableName(s, out[0].Target)
	return &JoinTableMeta{
		Name:        strutil.TableIdent(ent.Name),
		EntityID:    ent.ID,
		SourceTable: src,
		TargetTable: tgt,
		SourceFK:    strutil.FKColumn(src),
		TargetFK:    strutil.FKColumn(tgt),
	}
}

func tableName(s model.Schema, entityID string) string {
	if e := s.GetEntity(entityID); e != nil {
		return strutil.TableIdent(e.Name)
	}
	return entityID
}

// JSON returns the metadata as indented JSON.
func (m *Metadata) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, alerr.Wrap(alerr.EInternalError, err, "failed to encode metadata")
	}
	return data, nil
}

// SaveToFile writes the metadata to a JSON file at the specified path.
func (m *Metadata) SaveToFile(filePath string) error {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(filePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return alerr.Wrap(alerr.ErrFileWrite, err, "cannot create metadata directory").WithFile(dir, 0)
		}
	}

	data, err := m.JSON()
	if err != nil {
		return err
	}

	if err := os.WriteFile(filePath, append(data, '\n'), 0644); err != nil {
		return alerr.Wrap(alerr.ErrFileWrite, err, "cannot write metadata").WithFile(filePath, 0)
	}
	return nil
}

// LoadFile reads metadata previously written by SaveToFile.
func LoadFile(filePath string) (*Metadata, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrFileRead, err, "cannot read metadata").WithFile(filePath, 0)
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, alerr.Wrap(alerr.ErrFileRead, err, "malformed metadata").WithFile(filePath, 0)
	}
	return &m, nil
}
