package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hlop3z/erdlab/internal/alerr"
	"github.com/hlop3z/erdlab/internal/model"
	"github.com/hlop3z/erdlab/internal/modeler"
	"github.com/hlop3z/erdlab/internal/resolver"
)

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func newSandbox(t *testing.T, opts ...Option) *Sandbox {
	t.Helper()
	eng := modeler.New(modeler.WithIDGenerator(modeler.Sequential()))
	return New(eng, opts...)
}

func mustRun(t *testing.T, s *Sandbox, code string) {
	t.Helper()
	if err := s.Run(context.Background(), code); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func wantCode(t *testing.T, err error, code alerr.Code) *alerr.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %s, got nil", code)
	}
	var coded *alerr.Error
	if !errors.As(err, &coded) {
		t.Fatalf("expected *alerr.Error, got %T: %v", err, err)
	}
	if coded.GetCode() != code {
		t.Fatalf("code = %s, want %s (%v)", coded.GetCode(), code, err)
	}
	return coded
}

const studentCourse = `
var student = addEntity(newEntity("Student"));
var course = addEntity(newEntity("Course"));
var rel = addRelationship({source: student, target: course});
`

// -----------------------------------------------------------------------------
// Command bindings
// -----------------------------------------------------------------------------

func TestAddEntityAndGenerateSQL(t *testing.T) {
	s := newSandbox(t)
	mustRun(t, s, `
		var e = newEntity("User");
		e.attributes.push({name: "Email", type: "TEXT", isNullable: false});
		var id = addEntity(e);
		if (typeof id !== "string" || id === "") throw new Error("no id");
	`)

	want := "CREATE TABLE user (\n  id SERIAL PRIMARY KEY NOT NULL,\n  email TEXT NOT NULL\n);\n\n"
	if got := s.Engine().GenerateSQL(); got != want {
		t.Errorf("GenerateSQL() =\n%q\nwant\n%q", got, want)
	}
}

func TestAttributeDefaults(t *testing.T) {
	s := newSandbox(t)
	mustRun(t, s, `addEntity({name: "Tag", attributes: [{}]})`)

	ents := s.Engine().Entities()
	if len(ents) != 1 || len(ents[0].Attributes) != 1 {
		t.Fatalf("entities = %+v", ents)
	}
	a := ents[0].Attributes[0]
	if a.Name != "newAttribute" || a.Type != "VARCHAR(255)" || !a.IsNullable || a.IsPrimary || a.ID == "" {
		t.Errorf("attribute = %+v", a)
	}
}

func TestScriptQueriesMatchEngine(t *testing.T) {
	s := newSandbox(t)
	mustRun(t, s, studentCourse+`
		if (entities().length !== 2) throw new Error("entities");
		if (relationships().length !== 1) throw new Error("relationships");
		var r = relationships()[0];
		if (r.cardinality !== "1:n" || r.source !== student || r.target !== course) throw new Error("rel " + JSON.stringify(r));
		if (cursor() !== 3) throw new Error("cursor " + cursor());
		var h = history();
		if (h.length !== 4 || h[0].action !== "Initial state" || !h[3].current) throw new Error("history");
		if (generateSQL().indexOf("student_id SERIAL REFERENCES student(id)") < 0) throw new Error(generateSQL());
	`)
}

func TestAddRelationshipDuplicateReturnsNull(t *testing.T) {
	s := newSandbox(t)
	mustRun(t, s, studentCourse+`
		if (addRelationship({source: student, target: course}) !== null) throw new Error("duplicate applied");
		if (addRelationship({source: student, target: "missing"}) !== null) throw new Error("dangling applied");
	`)
	if n := len(s.Engine().Relationships()); n != 1 {
		t.Errorf("relationships = %d, want 1", n)
	}
}

func TestAddRelationshipCardinalityLabel(t *testing.T) {
	s := newSandbox(t)
	mustRun(t, s, `
		var a = addEntity(newEntity("A"));
		var b = addEntity(newEntity("B"));
		addRelationship({id: "r1", source: a, target: b, cardinality: "1:1"});
	`)
	rel, ok := s.Engine().Relationship("r1")
	if !ok {
		t.Fatal("relationship r1 missing")
	}
	if got := rel.Pair().String(); got != "1:1" {
		t.Errorf("cardinality = %s, want 1:1", got)
	}
}

func TestUpdateAndRemove(t *testing.T) {
	s := newSandbox(t)
	mustRun(t, s, studentCourse+`
		if (!updateEntity(student, {name: "Pupil", position: {x: 5, y: 6}})) throw new Error("update");
		if (updateEntity("missing", {name: "x"})) throw new Error("update missing");
		if (!updateRelationship(rel, {targetCardinality: "1"})) throw new Error("updateRelationship");
		if (updateRelationship(rel, {targetCardinality: "7"})) throw new Error("invalid cardinality applied");
		if (!removeRelationship(rel)) throw new Error("removeRelationship");
		if (!removeEntity(course)) throw new Error("removeEntity");
		if (removeEntity(course)) throw new Error("removeEntity twice");
	`)

	ents := s.Engine().Entities()
	if len(ents) != 1 || ents[0].Name != "Pupil" {
		t.Fatalf("entities = %+v", ents)
	}
	if p := ents[0].Position; p == nil || p.X != 5 || p.Y != 6 {
		t.Errorf("position = %+v", p)
	}
}

func TestUndoRedo(t *testing.T) {
	s := newSandbox(t)
	mustRun(t, s, `
		addEntity(newEntity("A"));
		if (!undo()) throw new Error("undo");
		if (undo()) throw new Error("undo past initial");
		if (entities().length !== 0) throw new Error("not empty");
		if (!redo()) throw new Error("redo");
		if (redo()) throw new Error("redo past tail");
	`)
	if n := len(s.Engine().Entities()); n != 1 {
		t.Errorf("entities = %d, want 1", n)
	}
}

func TestCreateJunctionTableBinding(t *testing.T) {
	s := newSandbox(t)
	mustRun(t, s, studentCourse+`
		if (!createJunctionTable(rel)) throw new Error("junction");
		if (createJunctionTable(rel)) throw new Error("junction twice");
	`)
	if n := len(s.Engine().Entities()); n != 3 {
		t.Errorf("entities = %d, want 3", n)
	}
}

func TestConnectAndNewEntityDoNotMutate(t *testing.T) {
	s := newSandbox(t)
	mustRun(t, s, `
		var r = connect("a", "b");
		if (r.id !== "rel-a-b" || r.sourceCardinality !== "1" || r.targetCardinality !== "n") throw new Error(JSON.stringify(r));
		var e = newEntity("X");
		if (e.id !== "" || e.attributes[0].name !== "id" || !e.attributes[0].isPrimary) throw new Error(JSON.stringify(e));
	`)
	if n := len(s.Engine().History()); n != 1 {
		t.Errorf("history = %d, want only the initial entry", n)
	}
}

// -----------------------------------------------------------------------------
// Cardinality edits
// -----------------------------------------------------------------------------

func TestSetCardinality(t *testing.T) {
	tests := []struct {
		name      string
		decider   resolver.Decider
		label     string
		wantState string
		wantEnts  int
		wantPair  string
	}{
		{"direct", resolver.Decline, "1:1", "resolved", 2, "1:1"},
		{"many-to-many accepted", resolver.Accept, "n:n", "resolved", 3, ""},
		{"many-to-many declined", resolver.Decline, "n:n", "cancelled", 2, "1:n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSandbox(t, WithDecider(tt.decider))
			mustRun(t, s, studentCourse+`
				var state = setCardinality(rel, "`+tt.label+`");
				if (state !== "`+tt.wantState+`") throw new Error("state " + state);
			`)

			eng := s.Engine()
			if n := len(eng.Entities()); n != tt.wantEnts {
				t.Errorf("entities = %d, want %d", n, tt.wantEnts)
			}
			if tt.wantPair == "" {
				return
			}
			rels := eng.Relationships()
			if len(rels) != 1 || rels[0].Pair().String() != tt.wantPair {
				t.Errorf("relationships = %+v, want one %s", rels, tt.wantPair)
			}
		})
	}
}

func TestSetCardinalityErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
		want alerr.Code
	}{
		{"unknown relationship", `setCardinality("rel-x", "1:1")`, alerr.ErrRelationshipNotFound},
		{"bad label", studentCourse + `setCardinality(rel, "1-n")`, alerr.ErrInvalidCardinality},
		{"bad side", studentCourse + `setCardinality(rel, "1:7")`, alerr.ErrInvalidCardinality},
		{"missing label", studentCourse + `setCardinality(rel)`, alerr.ErrScriptArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSandbox(t)
			wantCode(t, s.Run(context.Background(), tt.code), tt.want)
		})
	}
}

func TestDeciderSeesPrompt(t *testing.T) {
	var got resolver.JunctionPrompt
	d := resolver.DeciderFunc(func(_ context.Context, p resolver.JunctionPrompt) (bool, error) {
		got = p
		return false, nil
	})
	s := newSandbox(t, WithDecider(d))
	mustRun(t, s, studentCourse+`setCardinality(rel, "n:n")`)

	if got.Source != "Student" || got.Target != "Course" || got.JunctionName != "student_course" {
		t.Errorf("prompt = %+v", got)
	}
}

func TestDeciderErrorThrows(t *testing.T) {
	boom := errors.New("terminal closed")
	d := resolver.DeciderFunc(func(context.Context, resolver.JunctionPrompt) (bool, error) {
		return false, boom
	})
	s := newSandbox(t, WithDecider(d))
	err := s.Run(context.Background(), studentCourse+`setCardinality(rel, "n:n")`)
	wantCode(t, err, alerr.ErrScriptExecution)
	if !errors.Is(err, boom) {
		t.Errorf("error %v does not wrap decider error", err)
	}
}

func TestDecisionTimeNotCounted(t *testing.T) {
	d := resolver.DeciderFunc(func(context.Context, resolver.JunctionPrompt) (bool, error) {
		time.Sleep(300 * time.Millisecond)
		return true, nil
	})
	s := newSandbox(t, WithDecider(d), WithTimeout(150*time.Millisecond))
	mustRun(t, s, studentCourse+`setCardinality(rel, "n:n")`)

	if n := len(s.Engine().Entities()); n != 3 {
		t.Errorf("entities = %d, want 3", n)
	}
}

// -----------------------------------------------------------------------------
// Argument errors
// -----------------------------------------------------------------------------

func TestArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"addEntity number", `addEntity(42)`},
		{"addEntity no name", `addEntity({})`},
		{"addEntity bad position", `addEntity({name: "A", position: {x: "1"}})`},
		{"addEntity bad attribute", `addEntity({name: "A", attributes: [1]})`},
		{"removeEntity no id", `removeEntity()`},
		{"updateEntity no patch", `updateEntity("a")`},
		{"addRelationship no target", `addRelationship({source: "a"})`},
		{"connect number", `connect("a", 2)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSandbox(t)
			err := wantCode(t, s.Run(context.Background(), tt.code), alerr.ErrScriptArgument)
			if err.GetContext()["function"] == nil {
				t.Errorf("missing function context: %v", err)
			}
		})
	}
}

func TestStructuredErrorCatchable(t *testing.T) {
	s := newSandbox(t)
	mustRun(t, s, `
		try {
			addEntity();
			throw new Error("no throw");
		} catch (e) {
			if (e.__errorCode !== "E3003") throw e;
		}
	`)
}

// -----------------------------------------------------------------------------
// Sandbox hardening
// -----------------------------------------------------------------------------

func TestEvalDisabled(t *testing.T) {
	s := newSandbox(t)
	wantCode(t, s.Run(context.Background(), `eval("1 + 1")`), alerr.ErrScriptExecution)
}

func TestPrototypesFrozen(t *testing.T) {
	s := newSandbox(t)
	mustRun(t, s, `
		Object.prototype.polluted = true;
		if (({}).polluted) throw new Error("prototype polluted");
	`)
}

func TestDeterministicRandom(t *testing.T) {
	code := `addEntity({name: "r" + Math.random()})`
	a, b := newSandbox(t), newSandbox(t)
	mustRun(t, a, code)
	mustRun(t, b, code)

	if a.Engine().Entities()[0].Name != b.Engine().Entities()[0].Name {
		t.Error("Math.random differs between sandboxes")
	}
}

func TestFixedTime(t *testing.T) {
	s := newSandbox(t)
	mustRun(t, s, `if (new Date().getTime() !== `+
		strconv.FormatInt(FixedTime.UnixMilli(), 10)+`) throw new Error("clock " + new Date().toISOString())`)
}

func TestCallStackLimit(t *testing.T) {
	s := newSandbox(t)
	err := s.Run(context.Background(), `function f(n) { return f(n + 1); } f(0);`)
	if err == nil {
		t.Fatal("expected stack overflow error")
	}
	if alerr.GetErrorCode(err) != alerr.ErrScriptExecution {
		t.Errorf("code = %s, want %s", alerr.GetErrorCode(err), alerr.ErrScriptExecution)
	}
}

func TestTimeout(t *testing.T) {
	s := newSandbox(t, WithTimeout(50*time.Millisecond))
	err := wantCode(t, s.Run(context.Background(), `while (true) {}`), alerr.ErrScriptTimeout)
	if err.GetContext()["timeout"] != "50ms" {
		t.Errorf("timeout context = %v", err.GetContext()["timeout"])
	}

	// The sandbox stays usable after an interrupt.
	mustRun(t, s, `addEntity(newEntity("After"))`)
}

func TestContextCancel(t *testing.T) {
	s := newSandbox(t, WithTimeout(0))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := s.Run(ctx, `while (true) {}`)
	wantCode(t, err, alerr.ErrScriptExecution)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error %v does not wrap context.DeadlineExceeded", err)
	}
}

func TestCancelledContextDoesNotRun(t *testing.T) {
	s := newSandbox(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, `addEntity(newEntity("A"))`)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if n := len(s.Engine().Entities()); n != 0 {
		t.Errorf("entities = %d, want 0", n)
	}
}

// -----------------------------------------------------------------------------
// Error reporting
// -----------------------------------------------------------------------------

func TestErrorLocation(t *testing.T) {
	s := newSandbox(t)
	err := s.Run(context.Background(), "var a = 1;\nvar b = 2;\nthrow new Error(\"boom\");\n")
	coded := wantCode(t, err, alerr.ErrScriptExecution)

	ctx := coded.GetContext()
	if ctx["line"] != 3 {
		t.Errorf("line = %v, want 3", ctx["line"])
	}
	if ctx["source"] != `throw new Error("boom");` {
		t.Errorf("source = %v", ctx["source"])
	}
}

func TestUndefinedGlobalSuggestion(t *testing.T) {
	s := newSandbox(t)
	err := wantCode(t, s.Run(context.Background(), `addEntiti({name: "A"})`), alerr.ErrScriptExecution)

	found := false
	for _, h := range err.Helps() {
		if h == "did you mean 'addEntity'?" {
			found = true
		}
	}
	if !found {
		t.Errorf("helps = %v, want a suggestion for addEntity", err.Helps())
	}
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("ok", func(t *testing.T) {
		path := filepath.Join(dir, "model.js")
		if err := os.WriteFile(path, []byte(`addEntity(newEntity("Post"));`), 0o644); err != nil {
			t.Fatal(err)
		}
		s := newSandbox(t)
		if err := s.RunFile(context.Background(), path); err != nil {
			t.Fatalf("RunFile() error = %v", err)
		}
		if n := len(s.Engine().Entities()); n != 1 {
			t.Errorf("entities = %d, want 1", n)
		}
	})

	t.Run("missing", func(t *testing.T) {
		s := newSandbox(t)
		err := wantCode(t, s.RunFile(context.Background(), filepath.Join(dir, "nope.js")), alerr.ErrFileRead)
		if err.GetContext()["file"] == nil {
			t.Error("missing file context")
		}
	})

	t.Run("syntax error", func(t *testing.T) {
		path := filepath.Join(dir, "broken.js")
		if err := os.WriteFile(path, []byte("addEntity(\n{name: \"A\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		s := newSandbox(t)
		err := wantCode(t, s.RunFile(context.Background(), path), alerr.ErrScriptExecution)
		if err.GetContext()["file"] != path {
			t.Errorf("file = %v, want %s", err.GetContext()["file"], path)
		}
	})
}

// -----------------------------------------------------------------------------
// Logging
// -----------------------------------------------------------------------------

func TestConsoleLog(t *testing.T) {
	var buf bytes.Buffer
	s := newSandbox(t, WithLogger(zerolog.New(&buf)))
	mustRun(t, s, `console.log("tables:", 2, {a: 1})`)

	var line map[string]any
	first := strings.SplitN(buf.String(), "\n", 2)[0]
	if err := json.Unmarshal([]byte(first), &line); err != nil {
		t.Fatalf("log line %q: %v", first, err)
	}
	if line["level"] != "info" || line["message"] != `tables: 2 {"a":1}` || line["script"] != "<script>" {
		t.Errorf("log line = %v", line)
	}
}

func TestRunLogsDuration(t *testing.T) {
	var buf bytes.Buffer
	s := newSandbox(t, WithLogger(zerolog.New(&buf)))
	mustRun(t, s, `1 + 1`)

	if !strings.Contains(buf.String(), `"message":"script finished"`) ||
		!strings.Contains(buf.String(), `"duration"`) {
		t.Errorf("log = %s", buf.String())
	}
}

// -----------------------------------------------------------------------------
// Error parsing
// -----------------------------------------------------------------------------

func TestGetSourceLine(t *testing.T) {
	code := "line 1\nline 2\nline 3"
	tests := []struct {
		n    int
		want string
	}{
		{0, ""}, {1, "line 1"}, {3, "line 3"}, {4, ""},
	}
	for _, tt := range tests {
		if got := GetSourceLine(code, tt.n); got != tt.want {
			t.Errorf("GetSourceLine(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestParseGojaErrorMessage(t *testing.T) {
	info := &JSErrorInfo{Message: "SyntaxError: (anonymous): Line 4:12 Unexpected token ;"}
	parseGojaErrorMessage(info)
	if info.Line != 4 || info.Column != 12 {
		t.Errorf("line:col = %d:%d, want 4:12", info.Line, info.Column)
	}
}

func TestUndefinedName(t *testing.T) {
	if got := undefinedName("ReferenceError: foo is not defined"); got != "foo" {
		t.Errorf("undefinedName() = %q", got)
	}
	if got := undefinedName("TypeError: x"); got != "" {
		t.Errorf("undefinedName() = %q, want empty", got)
	}
}

// Ensures script-created entities go through the engine's layout.
func TestScriptEntitiesArePlaced(t *testing.T) {
	s := newSandbox(t)
	mustRun(t, s, `addEntity(newEntity("A"))`)
	e := s.Engine().Entities()[0]
	if e.Position == nil {
		t.Fatal("entity not placed")
	}
	want := model.Position{X: 640 - 250, Y: 400 - 250}
	if *e.Position != want {
		t.Errorf("position = %+v, want %+v", *e.Position, want)
	}
}
