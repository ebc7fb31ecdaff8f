package compiler

import (
	"github.com/seitarof/projgen/internal/expr"
	"github.com/seitarof/projgen/internal/identity"
	"github.com/seitarof/projgen/internal/schema"
	"github.com/seitarof/projgen/internal/typeres"
)

// mapOperators are the collection operators whose single-lambda argument
// projects each element.
var mapOperators = map[string]bool{
	"Select": true,
	"Map":    true,
}

type trailingOp struct {
	name     string
	optional bool
	args     []expr.Node
}

// expandNested detects and rewrites a nested collection projection:
//
//	base.Select(i => { ... }).Take(5)
//
// The map-operator call is located by walking backward through trailing
// calls; everything after it is reattached verbatim after the rewrite.
// Returns isNested=false when the value has no map-lambda at all, and a
// non-empty diagnostic when one exists but its shape cannot be handled.
func (b *builder) expandNested(n expr.Node, scope *typeres.Scope) (out expr.Node, nested *schema.Schema, isNested bool, diag string, err error) {
	if !containsMapLambda(n) {
		return n, nil, false, "", nil
	}

	var trailing []trailingOp
	cur := n
	for {
		call, ok := cur.(*expr.Call)
		if !ok {
			return n, nil, false, "could not locate map operator invocation", nil
		}
		mem, ok := call.Fn.(*expr.Member)
		if !ok {
			return n, nil, false, "could not locate map operator invocation", nil
		}
		if lam, obj, found := mapLambda(mem.Name, call.Args); found {
			return b.rewriteMapCall(n, mem, lam, obj, trailing, scope)
		}
		trailing = append(trailing, trailingOp{name: mem.Name, optional: mem.Optional, args: call.Args})
		cur = mem.Recv
	}
}

func (b *builder) rewriteMapCall(
	original expr.Node,
	mapMember *expr.Member,
	lam *expr.Lambda,
	obj *expr.Object,
	trailing []trailingOp,
	scope *typeres.Scope,
) (expr.Node, *schema.Schema, bool, string, error) {
	c := b.compiler

	base := mapMember.Recv
	baseType, ok := c.res.ResolveType(base, scope)
	if !ok || baseType.Kind != typeres.KindCollection || baseType.Elem == nil {
		return original, nil, false, "map operator receiver is not a known collection", nil
	}

	inner := &typeres.Scope{Param: lam.Param, Self: *baseType.Elem, Outer: scope}
	nestedSch, nestedBody, err := b.schema(obj, inner, baseType.Elem.FullName)
	if err != nil {
		return nil, nil, false, "", err
	}
	nestedSch.Param = lam.Param
	if nestedSch.Empty() {
		return original, nil, false, "nested projection has no nameable fields", nil
	}

	id := identity.Compute(nestedSch)
	name, err := c.registry.ResolveOrRegister(id, schema.GeneratedTypeName(baseType.Elem.FullName, id.Hash))
	if err != nil {
		return nil, nil, false, "", err
	}
	nestedSch.GeneratedName = name

	rebuilt := expr.Node(&expr.Call{
		Fn:   &expr.Member{Recv: base, Name: mapMember.Name, Optional: mapMember.Optional},
		Args: []expr.Node{&expr.Lambda{Param: lam.Param, Body: nestedBody}},
	})
	for i := len(trailing) - 1; i >= 0; i-- {
		t := trailing[i]
		rebuilt = &expr.Call{
			Fn:   &expr.Member{Recv: rebuilt, Name: t.name, Optional: t.optional},
			Args: t.args,
		}
	}
	return rebuilt, nestedSch, true, "", nil
}

// mapLambda matches Select(i => { ... }) style arguments.
func mapLambda(opName string, args []expr.Node) (*expr.Lambda, *expr.Object, bool) {
	if !mapOperators[opName] || len(args) != 1 {
		return nil, nil, false
	}
	lam, ok := args[0].(*expr.Lambda)
	if !ok {
		return nil, nil, false
	}
	obj, ok := lam.Body.(*expr.Object)
	if !ok {
		return nil, nil, false
	}
	return lam, obj, true
}

// containsMapLambda reports whether n holds a map-operator call with an
// object-constructing lambda anywhere in its tree.
func containsMapLambda(n expr.Node) bool {
	found := false
	expr.Walk(n, func(m expr.Node) bool {
		call, ok := m.(*expr.Call)
		if !ok {
			return !found
		}
		mem, ok := call.Fn.(*expr.Member)
		if ok {
			if _, _, isMap := mapLambda(mem.Name, call.Args); isMap {
				found = true
			}
		}
		return !found
	})
	return found
}
