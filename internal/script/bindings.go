package script

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dop251/goja"

	"github.com/hlop3z/erdlab/internal/alerr"
	"github.com/hlop3z/erdlab/internal/jsutil"
	"github.com/hlop3z/erdlab/internal/model"
	"github.com/hlop3z/erdlab/internal/modeler"
	"github.com/hlop3z/erdlab/internal/resolver"
)

// Globals lists the names every script can call.
var Globals = []string{
	"addEntity", "updateEntity", "removeEntity",
	"addRelationship", "removeRelationship", "updateRelationship",
	"setCardinality", "createJunctionTable",
	"undo", "redo", "generateSQL",
	"entities", "relationships", "history", "cursor",
	"newEntity", "connect", "console",
}

type binding = func(goja.FunctionCall) goja.Value

func (s *Sandbox) bind() {
	bindings := map[string]binding{
		"addEntity":           s.addEntity,
		"updateEntity":        s.updateEntity,
		"removeEntity":        s.removeEntity,
		"addRelationship":     s.addRelationship,
		"removeRelationship":  s.removeRelationship,
		"updateRelationship":  s.updateRelationship,
		"setCardinality":      s.setCardinality,
		"createJunctionTable": s.createJunctionTable,
		"undo":                s.undo,
		"redo":                s.redo,
		"generateSQL":         s.generateSQL,
		"entities":            s.entities,
		"relationships":       s.relationships,
		"history":             s.history,
		"cursor":              s.cursor,
		"newEntity":           s.newEntity,
		"connect":             s.connect,
	}
	for name, fn := range bindings {
		_ = s.vm.Set(name, fn)
	}

	console := s.vm.NewObject()
	_ = console.Set("log", s.consoleLog)
	_ = s.vm.Set("console", console)
}

// throw raises err in the running script. It does not return.
func (s *Sandbox) throw(err *alerr.Error) {
	s.thrown = err
	jsutil.Throw(s.vm, err)
}

func (s *Sandbox) mustString(call goja.FunctionCall, i int, fn, param string) string {
	str, err := stringArg(fn, param, call.Argument(i))
	if err != nil {
		s.throw(err)
	}
	return str
}

func (s *Sandbox) mustObject(call goja.FunctionCall, i int, fn string) *goja.Object {
	obj, err := s.objectArg(fn, call.Argument(i))
	if err != nil {
		s.throw(err)
	}
	return obj
}

// -----------------------------------------------------------------------------
// Commands
// -----------------------------------------------------------------------------

func (s *Sandbox) addEntity(call goja.FunctionCall) goja.Value {
	e, err := entityFromJS("addEntity", s.mustObject(call, 0, "addEntity"))
	if err != nil {
		s.throw(err)
	}
	return s.vm.ToValue(s.eng.AddEntity(e).ID)
}

func (s *Sandbox) updateEntity(call goja.FunctionCall) goja.Value {
	id := s.mustString(call, 0, "updateEntity", "id")
	patch, err := entityPatchFromJS("updateEntity", s.mustObject(call, 1, "updateEntity"))
	if err != nil {
		s.throw(err)
	}
	return s.vm.ToValue(s.eng.UpdateEntity(id, patch).Applied)
}

func (s *Sandbox) removeEntity(call goja.FunctionCall) goja.Value {
	id := s.mustString(call, 0, "removeEntity", "id")
	return s.vm.ToValue(s.eng.RemoveEntity(id).Applied)
}

func (s *Sandbox) addRelationship(call goja.FunctionCall) goja.Value {
	rel, err := relationshipFromJS("addRelationship", s.mustObject(call, 0, "addRelationship"))
	if err != nil {
		s.throw(err)
	}
	res := s.eng.AddRelationship(rel)
	if !res.Applied {
		return goja.Null()
	}
	return s.vm.ToValue(res.ID)
}

func (s *Sandbox) removeRelationship(call goja.FunctionCall) goja.Value {
	id := s.mustString(call, 0, "removeRelationship", "id")
	return s.vm.ToValue(s.eng.RemoveRelationship(id).Applied)
}

func (s *Sandbox) updateRelationship(call goja.FunctionCall) goja.Value {
	id := s.mustString(call, 0, "updateRelationship", "id")
	patch := relationshipPatchFromJS(s.mustObject(call, 1, "updateRelationship"))
	return s.vm.ToValue(s.eng.UpdateRelationship(id, patch).Applied)
}

// setCardinality runs a full cardinality edit and returns the final session
// state, e.g. "resolved" or "cancelled".
func (s *Sandbox) setCardinality(call goja.FunctionCall) goja.Value {
	id := s.mustString(call, 0, "setCardinality", "id")
	label := s.mustString(call, 1, "setCardinality", "cardinality")

	pair, err := model.ParsePair(label)
	if err != nil {
		s.throw(asScriptError(err, "setCardinality"))
	}

	out, err := resolver.Resolve(s.ctx, s.eng, id, pair, s.pausingDecider())
	if err != nil {
		s.throw(asScriptError(err, "setCardinality"))
	}
	return s.vm.ToValue(out.State.String())
}

func (s *Sandbox) createJunctionTable(call goja.FunctionCall) goja.Value {
	id := s.mustString(call, 0, "createJunctionTable", "relationshipId")

	var source, target model.Entity
	if rel, ok := s.eng.Relationship(id); ok {
		source, _ = s.eng.Entity(rel.Source)
		target, _ = s.eng.Entity(rel.Target)
	}
	return s.vm.ToValue(s.eng.CreateJunctionTable(id, source, target).Applied)
}

func (s *Sandbox) undo(goja.FunctionCall) goja.Value {
	return s.vm.ToValue(s.eng.Undo().Applied)
}

func (s *Sandbox) redo(goja.FunctionCall) goja.Value {
	return s.vm.ToValue(s.eng.Redo().Applied)
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

func (s *Sandbox) generateSQL(goja.FunctionCall) goja.Value {
	return s.vm.ToValue(s.eng.GenerateSQL())
}

func (s *Sandbox) entities(goja.FunctionCall) goja.Value {
	list := s.eng.Entities()
	out := make([]any, len(list))
	for i, e := range list {
		out[i] = entityMap(e)
	}
	return s.toJS(out)
}

func (s *Sandbox) relationships(goja.FunctionCall) goja.Value {
	list := s.eng.Relationships()
	out := make([]any, len(list))
	for i, r := range list {
		out[i] = relationshipMap(r)
	}
	return s.toJS(out)
}

func (s *Sandbox) history(goja.FunctionCall) goja.Value {
	entries := s.eng.History()
	cursor := s.eng.Cursor()
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = historyMap(i, e, cursor)
	}
	return s.toJS(out)
}

func (s *Sandbox) cursor(goja.FunctionCall) goja.Value {
	return s.vm.ToValue(s.eng.Cursor())
}

// newEntity returns the default entity without adding it. Ids are left
// empty so the engine assigns them on addEntity.
func (s *Sandbox) newEntity(call goja.FunctionCall) goja.Value {
	name := s.mustString(call, 0, "newEntity", "name")
	e := modeler.NewEntity(name)
	e.ID = ""
	for i := range e.Attributes {
		e.Attributes[i].ID = ""
	}
	return s.toJS(entityMap(e))
}

func (s *Sandbox) connect(call goja.FunctionCall) goja.Value {
	source := s.mustString(call, 0, "connect", "source")
	target := s.mustString(call, 1, "connect", "target")
	return s.toJS(relationshipMap(modeler.Connect(source, target)))
}

func (s *Sandbox) consoleLog(call goja.FunctionCall) goja.Value {
	parts := make([]string, len(call.Arguments))
	for i, arg := range call.Arguments {
		parts[i] = formatLogArg(arg)
	}
	s.log.Info().Str("script", s.currentName).Msg(strings.Join(parts, " "))
	return goja.Undefined()
}

func formatLogArg(v goja.Value) string {
	if obj, ok := v.(*goja.Object); ok {
		if data, err := json.Marshal(obj.Export()); err == nil {
			return string(data)
		}
	}
	return jsutil.ToGoString(v)
}

// -----------------------------------------------------------------------------
// Junction decisions
// -----------------------------------------------------------------------------

// pausingDecider wraps the configured decider so the run's time budget is
// suspended while it waits.
func (s *Sandbox) pausingDecider() resolver.Decider {
	return resolver.DeciderFunc(func(ctx context.Context, p resolver.JunctionPrompt) (bool, error) {
		s.watch.pause()
		defer s.watch.resume()
		return s.decider.DecideJunction(ctx, p)
	})
}

// asScriptError keeps coded errors as they are and wraps anything else.
func asScriptError(err error, fn string) *alerr.Error {
	var coded *alerr.Error
	if errors.As(err, &coded) {
		return coded.With("function", fn)
	}
	return alerr.Wrap(alerr.ErrScriptExecution, err, fn+" failed").With("function", fn)
}
