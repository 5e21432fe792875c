package script

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/hlop3z/erdlab/internal/alerr"
	"github.com/hlop3z/erdlab/internal/history"
	"github.com/hlop3z/erdlab/internal/jsutil"
	"github.com/hlop3z/erdlab/internal/model"
	"github.com/hlop3z/erdlab/internal/modeler"
)

// Values handed to scripts are native JS objects and arrays so that
// scripts can mutate and pass them back freely.

func (s *Sandbox) toJS(v any) goja.Value {
	switch x := v.(type) {
	case map[string]any:
		obj := s.vm.NewObject()
		for k, val := range x {
			_ = obj.Set(k, s.toJS(val))
		}
		return obj
	case []any:
		items := make([]any, len(x))
		for i, val := range x {
			items[i] = s.toJS(val)
		}
		return s.vm.NewArray(items...)
	case nil:
		return goja.Null()
	default:
		return s.vm.ToValue(x)
	}
}

func attributeMap(a model.Attribute) map[string]any {
	return map[string]any{
		"id":         a.ID,
		"name":       a.Name,
		"type":       a.Type,
		"isPrimary":  a.IsPrimary,
		"isNullable": a.IsNullable,
	}
}

func positionMap(p *model.Position) any {
	if p == nil {
		return nil
	}
	return map[string]any{"x": p.X, "y": p.Y}
}

func entityMap(e model.Entity) map[string]any {
	attrs := make([]any, len(e.Attributes))
	for i, a := range e.Attributes {
		attrs[i] = attributeMap(a)
	}
	return map[string]any{
		"id":         e.ID,
		"name":       e.Name,
		"attributes": attrs,
		"position":   positionMap(e.Position),
	}
}

func relationshipMap(r model.Relationship) map[string]any {
	return map[string]any{
		"id":                r.ID,
		"source":            r.Source,
		"target":            r.Target,
		"sourceCardinality": string(r.SourceCardinality),
		"targetCardinality": string(r.TargetCardinality),
		"cardinality":       r.Pair().String(),
	}
}

func historyMap(i int, e history.Entry, cursor int) map[string]any {
	return map[string]any{
		"index":         i,
		"action":        e.Action,
		"recordedAt":    e.RecordedAt.UTC().Format(time.RFC3339),
		"entities":      len(e.State.Entities),
		"relationships": len(e.State.Relationships),
		"current":       i == cursor,
	}
}

// argError builds the error thrown for a malformed argument.
func argError(fn, format string, args ...any) *alerr.Error {
	return alerr.Newf(alerr.ErrScriptArgument, "%s: %s", fn, fmt.Sprintf(format, args...)).
		With("function", fn)
}

func (s *Sandbox) objectArg(fn string, v goja.Value) (*goja.Object, *alerr.Error) {
	if jsutil.IsNullish(v) {
		return nil, argError(fn, "expected an object").WithHelp("pass an object literal, e.g. {name: \"User\"}")
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, argError(fn, "expected an object, got %s", v.String())
	}
	return obj, nil
}

func stringArg(fn, param string, v goja.Value) (string, *alerr.Error) {
	if jsutil.IsNullish(v) {
		return "", argError(fn, "missing %s", param)
	}
	str, ok := v.Export().(string)
	if !ok {
		return "", argError(fn, "%s must be a string", param)
	}
	return str, nil
}

func positionFromJS(fn string, obj *goja.Object) (*model.Position, *alerr.Error) {
	x, okX := jsutil.GetFloat(obj, "x")
	y, okY := jsutil.GetFloat(obj, "y")
	if !okX || !okY {
		return nil, argError(fn, "position needs numeric x and y")
	}
	return &model.Position{X: x, Y: y}, nil
}

func attributesFromJS(fn string, values []goja.Value) ([]model.Attribute, *alerr.Error) {
	attrs := make([]model.Attribute, 0, len(values))
	for i, v := range values {
		obj, ok := v.(*goja.Object)
		if !ok {
			return nil, argError(fn, "attributes[%d] must be an object", i)
		}
		a := modeler.NewAttribute()
		a.ID = ""
		if id, ok := jsutil.GetString(obj, "id"); ok {
			a.ID = id
		}
		if name, ok := jsutil.GetString(obj, "name"); ok {
			a.Name = name
		}
		if typ, ok := jsutil.GetString(obj, "type"); ok {
			a.Type = typ
		}
		if pk, ok := jsutil.GetBool(obj, "isPrimary"); ok {
			a.IsPrimary = pk
		}
		if null, ok := jsutil.GetBool(obj, "isNullable"); ok {
			a.IsNullable = null
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

func entityFromJS(fn string, obj *goja.Object) (model.Entity, *alerr.Error) {
	var e model.Entity
	e.ID, _ = jsutil.GetString(obj, "id")
	name, ok := jsutil.GetString(obj, "name")
	if !ok {
		return e, argError(fn, "entity needs a string name")
	}
	e.Name = name

	if values, ok := jsutil.GetArray(obj, "attributes"); ok {
		attrs, err := attributesFromJS(fn, values)
		if err != nil {
			return e, err
		}
		e.Attributes = attrs
	}
	if posObj, ok := jsutil.GetObject(obj, "position"); ok {
		pos, err := positionFromJS(fn, posObj)
		if err != nil {
			return e, err
		}
		e.Position = pos
	}
	return e, nil
}

func entityPatchFromJS(fn string, obj *goja.Object) (model.EntityPatch, *alerr.Error) {
	var p model.EntityPatch
	if name, ok := jsutil.GetString(obj, "name"); ok {
		p.Name = &name
	}
	if values, ok := jsutil.GetArray(obj, "attributes"); ok {
		attrs, err := attributesFromJS(fn, values)
		if err != nil {
			return p, err
		}
		p.Attributes = attrs
	}
	if posObj, ok := jsutil.GetObject(obj, "position"); ok {
		pos, err := positionFromJS(fn, posObj)
		if err != nil {
			return p, err
		}
		p.Position = pos
	}
	return p, nil
}

// relationshipFromJS reads a relationship. A "cardinality" label such as
// "1:n" may stand in for the two sides; with neither given it is 1:n.
func relationshipFromJS(fn string, obj *goja.Object) (model.Relationship, *alerr.Error) {
	var r model.Relationship
	r.ID, _ = jsutil.GetString(obj, "id")
	src, okS := jsutil.GetString(obj, "source")
	tgt, okT := jsutil.GetString(obj, "target")
	if !okS || !okT {
		return r, argError(fn, "relationship needs string source and target")
	}
	r.Source, r.Target = src, tgt

	r.SourceCardinality, r.TargetCardinality = model.One, model.Many
	if label, ok := jsutil.GetString(obj, "cardinality"); ok {
		pair, err := model.ParsePair(label)
		if err != nil {
			var coded *alerr.Error
			if errors.As(err, &coded) {
				return r, coded.With("function", fn)
			}
			return r, argError(fn, "%v", err)
		}
		r.SourceCardinality, r.TargetCardinality = pair.Source, pair.Target
	}
	if c, ok := jsutil.GetString(obj, "sourceCardinality"); ok {
		r.SourceCardinality = model.Cardinality(c)
	}
	if c, ok := jsutil.GetString(obj, "targetCardinality"); ok {
		r.TargetCardinality = model.Cardinality(c)
	}
	return r, nil
}

func relationshipPatchFromJS(obj *goja.Object) model.RelationshipPatch {
	var p model.RelationshipPatch
	if v, ok := jsutil.GetString(obj, "source"); ok {
		p.Source = &v
	}
	if v, ok := jsutil.GetString(obj, "target"); ok {
		p.Target = &v
	}
	if v, ok := jsutil.GetString(obj, "sourceCardinality"); ok {
		c := model.Cardinality(v)
		p.SourceCardinality = &c
	}
	if v, ok := jsutil.GetString(obj, "targetCardinality"); ok {
		c := model.Cardinality(v)
		p.TargetCardinality = &c
	}
	return p
}
