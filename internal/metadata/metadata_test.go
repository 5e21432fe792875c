package metadata

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hlop3z/erdlab/internal/alerr"
	"github.com/hlop3z/erdlab/internal/model"
)

func junctionSchema() model.Schema {
	pk := func(id string) []model.Attribute {
		return []model.Attribute{{ID: id, Name: "id", Type: "SERIAL", IsPrimary: true}}
	}
	return model.Schema{
		Entities: []model.Entity{
			{ID: "s", Name: "Student", Attributes: pk("s1")},
			{ID: "c", Name: "Course", Attributes: pk("c1")},
			{ID: "j", Name: "student_course", Attributes: []model.Attribute{
				{ID: "j1", Name: "student_id", Type: "INTEGER", IsPrimary: true},
				{ID: "j2", Name: "course_id", Type: "INTEGER", IsPrimary: true},
			}},
			{ID: "t", Name: "Instructor", Attributes: pk("t1")},
		},
		Relationships: []model.Relationship{
			{ID: "r1", Source: "s", Target: "j", SourceCardinality: model.One, TargetCardinality: model.Many},
			{ID: "r2", Source: "j", Target: "c", SourceCardinality: model.Many, TargetCardinality: model.One},
			{ID: "r3", Source: "t", Target: "c", SourceCardinality: model.Many, TargetCardinality: model.Many},
		},
	}
}

// -----------------------------------------------------------------------------
// New Tests
// -----------------------------------------------------------------------------

func TestNew(t *testing.T) {
	m := New()

	if m.Version != "1.0" {
		t.Errorf("New().Version = %q, want %q", m.Version, "1.0")
	}
	if m.Tables == nil || m.Relationships == nil || m.ManyToMany == nil || m.JoinTables == nil {
		t.Error("New() should initialize every collection")
	}
	if m.GeneratedAt.IsZero() {
		t.Error("New().GeneratedAt is zero")
	}
}

// -----------------------------------------------------------------------------
// Build Tests
// -----------------------------------------------------------------------------

func TestBuildTables(t *testing.T) {
	m := Build(junctionSchema())

	if len(m.Tables) != 4 {
		t.Fatalf("len(Tables) = %d, want 4", len(m.Tables))
	}
	if m.Fingerprint == "" {
		t.Error("Fingerprint should be set")
	}

	j := m.Table("j")
	if j == nil {
		t.Fatal("junction table missing")
	}
	if got := strings.Join(j.PrimaryKey, ","); got != "student_id,course_id" {
		t.Errorf("PrimaryKey = %s", got)
	}
	if len(j.ForeignKeys) != 1 || j.ForeignKeys[0].RefTable != "student" || j.ForeignKeys[0].Column != "student_id" {
		t.Errorf("ForeignKeys = %+v", j.ForeignKeys)
	}

	c := m.Table("c")
	if got := strings.Join(c.Columns, ","); got != "id,student_course_id,instructor_id" {
		t.Errorf("course columns = %s", got)
	}
	if m.Table("missing") != nil {
		t.Error("Table() should return nil for unknown ids")
	}
}

func TestBuildRelationships(t *testing.T) {
	m := Build(junctionSchema())

	if len(m.Relationships) != 3 {
		t.Fatalf("len(Relationships) = %d, want 3", len(m.Relationships))
	}
	r := m.Relationships[2]
	if r.Source != "instructor" || r.Target != "course" || r.Cardinality != "n:n" {
		t.Errorf("Relationships[2] = %+v", r)
	}

	if len(m.ManyToMany) != 1 {
		t.Fatalf("len(ManyToMany) = %d, want 1", len(m.ManyToMany))
	}
	if m.ManyToMany[0].JoinTable != "instructor_course" {
		t.Errorf("JoinTable = %q", m.ManyToMany[0].JoinTable)
	}
}

func TestBuildDetectsJoinTables(t *testing.T) {
	m := Build(junctionSchema())

	if len(m.JoinTables) != 1 {
		t.Fatalf("len(JoinTables) = %d, want 1", len(m.JoinTables))
	}
	jt := m.JoinTables[0]
	if jt.Name != "student_course" || jt.SourceTable != "student" || jt.TargetTable != "course" {
		t.Errorf("JoinTables[0] = %+v", jt)
	}
	if jt.SourceFK != "student_id" || jt.TargetFK != "course_id" {
		t.Errorf("join FKs = %s, %s", jt.SourceFK, jt.TargetFK)
	}
}

func TestBuildIgnoresSingleKeyBridge(t *testing.T) {
	s := junctionSchema()
	s.Entities[2].Attributes[1].IsPrimary = false

	if m := Build(s); len(m.JoinTables) != 0 {
		t.Errorf("JoinTables = %+v, want none", m.JoinTables)
	}
}

func TestBuildEmpty(t *testing.T) {
	m := Build(model.Schema{})
	data, err := m.JSON()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"tables": []`) {
		t.Errorf("empty model should encode empty arrays:\n%s", data)
	}
}

// -----------------------------------------------------------------------------
// File Tests
// -----------------------------------------------------------------------------

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "metadata.json")
	m := Build(junctionSchema())

	if err := m.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	want, _ := json.Marshal(m)
	got, _ := json.Marshal(loaded)
	if string(got) != string(want) {
		t.Errorf("round trip mismatch:\n%s\nvs\n%s", got, want)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	if !alerr.Is(err, alerr.ErrFileRead) {
		t.Errorf("LoadFile() error = %v, want %s", err, alerr.ErrFileRead)
	}
}
