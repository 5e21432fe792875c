package modeler

import (
	"testing"

	"github.com/hlop3z/erdlab/internal/model"
)

func studentCourse(t *testing.T) (*Engine, model.Entity, model.Entity) {
	t.Helper()
	e := newTestEngine()
	student := entity("s", "Student")
	student.Position = &model.Position{X: 0, Y: 0}
	course := entity("c", "Course")
	course.Position = &model.Position{X: 400, Y: 200}
	e.AddEntity(student)
	e.AddEntity(course)
	e.AddRelationship(model.Relationship{
		ID: "r1", Source: "s", Target: "c",
		SourceCardinality: model.Many, TargetCardinality: model.Many,
	})
	return e, student, course
}

// -----------------------------------------------------------------------------
// Junction Synthesis Tests
// -----------------------------------------------------------------------------

func TestCreateJunctionTable(t *testing.T) {
	e, student, course := studentCourse(t)
	before := e.Snapshot()
	cursor := e.Cursor()

	res := e.CreateJunctionTable("r1", student, course)
	if !res.Applied {
		t.Fatalf("CreateJunctionTable() = %+v", res)
	}
	if res.Action != "Created junction table: student_course" {
		t.Errorf("Action = %q", res.Action)
	}
	if e.Cursor() != cursor+1 {
		t.Errorf("junction synthesis recorded %d entries, want 1", e.Cursor()-cursor)
	}

	after := e.Snapshot()
	if len(after.Entities) != len(before.Entities)+1 {
		t.Errorf("entities = %d, want %d", len(after.Entities), len(before.Entities)+1)
	}
	if len(after.Relationships) != len(before.Relationships)+1 {
		t.Errorf("relationships = %d, want %d", len(after.Relationships), len(before.Relationships)+1)
	}
	if after.GetRelationship("r1") != nil {
		t.Error("original relationship should be removed")
	}

	j := after.GetEntity(res.ID)
	if j == nil {
		t.Fatal("junction entity missing")
	}
	if j.Name != "student_course" {
		t.Errorf("junction name = %q", j.Name)
	}
	if len(j.Attributes) != 2 {
		t.Fatalf("junction attributes = %d, want 2", len(j.Attributes))
	}
	wantNames := []string{"student_id", "course_id"}
	for i, a := range j.Attributes {
		if a.Name != wantNames[i] {
			t.Errorf("attribute %d name = %q, want %q", i, a.Name, wantNames[i])
		}
		if a.Type != "INTEGER" || !a.IsPrimary || a.IsNullable {
			t.Errorf("attribute %d = %+v, want primary non-null INTEGER", i, a)
		}
	}
	if *j.Position != (model.Position{X: 200, Y: 200}) {
		t.Errorf("junction position = %+v, want {200 200}", *j.Position)
	}

	in := after.Incoming(j.ID)
	out := after.Outgoing(j.ID)
	if len(in) != 1 || in[0].Source != "s" || in[0].Pair().String() != "1:n" {
		t.Errorf("source -> junction = %+v", in)
	}
	if len(out) != 1 || out[0].Target != "c" || out[0].Pair().String() != "n:1" {
		t.Errorf("junction -> target = %+v", out)
	}
	if err := after.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestCreateJunctionTableSingleUndo(t *testing.T) {
	e, student, course := studentCourse(t)
	before := e.Snapshot()

	e.CreateJunctionTable("r1", student, course)
	e.Undo()

	after := e.Snapshot()
	if len(after.Entities) != len(before.Entities) || after.GetRelationship("r1") == nil {
		t.Error("one undo should revert the whole junction synthesis")
	}
}

func TestCreateJunctionTableUsesLiveEntities(t *testing.T) {
	e, student, course := studentCourse(t)
	e.UpdateEntity("s", model.EntityPatch{Name: model.Ptr("Pupil")})

	res := e.CreateJunctionTable("r1", student, course)
	j, _ := e.Entity(res.ID)
	if j.Name != "pupil_course" {
		t.Errorf("junction name = %q, want pupil_course", j.Name)
	}
}

func TestCreateJunctionTableRejections(t *testing.T) {
	tests := []struct {
		name   string
		relID  string
		source string
		target string
		reason string
	}{
		{"unknown relationship", "missing", "s", "c", ReasonUnknownRelationship},
		{"swapped endpoints", "r1", "c", "s", ReasonEndpointMismatch},
		{"foreign entity", "r1", "s", "x", ReasonEndpointMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, _ := studentCourse(t)
			cursor := e.Cursor()

			res := e.CreateJunctionTable(tt.relID, model.Entity{ID: tt.source}, model.Entity{ID: tt.target})
			if res.Applied {
				t.Fatal("CreateJunctionTable should be rejected")
			}
			if res.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", res.Reason, tt.reason)
			}
			if e.Cursor() != cursor {
				t.Error("rejected synthesis recorded history")
			}
		})
	}
}

func TestJunctionSQL(t *testing.T) {
	e, student, course := studentCourse(t)
	e.CreateJunctionTable("r1", student, course)

	want := "CREATE TABLE student (\n  id SERIAL PRIMARY KEY NOT NULL\n);\n\n" +
		"CREATE TABLE course (\n  id SERIAL PRIMARY KEY NOT NULL,\n  student_course_id INTEGER REFERENCES student_course(student_id)\n);\n\n" +
		"CREATE TABLE student_course (\n  student_id INTEGER PRIMARY KEY NOT NULL,\n  course_id INTEGER PRIMARY KEY NOT NULL,\n  student_id SERIAL REFERENCES student(id)\n);\n\n"
	if got := e.GenerateSQL(); got != want {
		t.Errorf("GenerateSQL() =\n%s\nwant:\n%s", got, want)
	}
}

// -----------------------------------------------------------------------------
// Default Constructor Tests
// -----------------------------------------------------------------------------

func TestDefaults(t *testing.T) {
	ent := NewEntity("User")
	if ent.Name != "User" || len(ent.Attributes) != 1 {
		t.Fatalf("NewEntity() = %+v", ent)
	}
	pk := ent.PrimaryKey()
	if pk == nil || pk.Name != "id" || pk.Type != "SERIAL" || pk.IsNullable {
		t.Errorf("default primary key = %+v", pk)
	}

	attr := NewAttribute()
	if attr.Name != "newAttribute" || attr.Type != "VARCHAR(255)" || attr.IsPrimary || !attr.IsNullable {
		t.Errorf("NewAttribute() = %+v", attr)
	}

	r := Connect("a", "b")
	if r.ID != "rel-a-b" || r.Pair().String() != "1:n" {
		t.Errorf("Connect() = %+v", r)
	}
}

func TestCreateJunctionTableSkipsTakenIDs(t *testing.T) {
	e, student, course := studentCourse(t)
	e.AddEntity(entity("entity-1", "Room"))
	e.AddRelationship(rel("rel-1", "s", "entity-1"))

	res := e.CreateJunctionTable("r1", student, course)
	if !res.Applied {
		t.Fatalf("CreateJunctionTable() = %+v", res)
	}
	if res.ID == "entity-1" {
		t.Errorf("junction reused taken id %q", res.ID)
	}
	if err := e.Snapshot().Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestConnectDistinctPairs(t *testing.T) {
	a := Connect("a-b", "c")
	b := Connect("a", "b-c")
	if a.ID == b.ID {
		t.Fatalf("distinct pairs share id %q", a.ID)
	}

	e := newTestEngine()
	for _, id := range []string{"a", "b-c", "a-b", "c"} {
		e.AddEntity(entity(id, id))
	}
	for _, r := range []model.Relationship{a, b} {
		if res := e.AddRelationship(r); !res.Applied {
			t.Errorf("AddRelationship(%s) = %+v", r.ID, res)
		}
	}
}
