// Package capture classifies the free references of a projection and
// computes which of them must be threaded in as captured values,
// evaluated once outside per-element evaluation.
package capture

import (
	"github.com/seitarof/projgen/internal/expr"
	"github.com/seitarof/projgen/internal/typeres"
)

// Entry is one captured value.
type Entry struct {
	DisplayName string
	Kind        typeres.RefKind
	Type        typeres.TypeDescriptor
}

// Set is an ordered, duplicate-free capture set for one root projection.
type Set struct {
	entries []Entry
	seen    map[string]bool
}

// NewSet creates an empty capture set.
func NewSet() *Set {
	return &Set{seen: map[string]bool{}}
}

func (s *Set) add(name string, kind typeres.RefKind, typ typeres.TypeDescriptor) {
	if s.seen[name] {
		return
	}
	s.seen[name] = true
	s.entries = append(s.entries, Entry{DisplayName: name, Kind: kind, Type: typ})
}

// Entries returns captures in first-reference order.
func (s *Set) Entries() []Entry { return s.entries }

// Names returns the display names in first-reference order.
func (s *Set) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.DisplayName
	}
	return names
}

// Contains reports membership by display name.
func (s *Set) Contains(name string) bool { return s.seen[name] }

// Len returns the number of captures.
func (s *Set) Len() int { return len(s.entries) }

// Analyzer walks field expressions and builds the capture set.
type Analyzer struct {
	res typeres.Resolver
}

// NewAnalyzer creates an analyzer over res.
func NewAnalyzer(res typeres.Resolver) *Analyzer {
	return &Analyzer{res: res}
}

// Analyze classifies every leaf reference in n, returning the possibly
// rewritten expression (non-public member accesses are replaced by
// synthetic captured_<Name> locals) and recording captures into set.
func (a *Analyzer) Analyze(n expr.Node, scope *typeres.Scope, set *Set) expr.Node {
	switch v := n.(type) {
	case *expr.Ident:
		return a.analyzeIdent(v, scope, set)
	case *expr.Member:
		return a.analyzeMember(v, scope, set)
	case *expr.Call:
		args := make([]expr.Node, len(v.Args))
		for i, arg := range v.Args {
			args[i] = a.Analyze(arg, scope, set)
		}
		fn := v.Fn
		if m, ok := fn.(*expr.Member); ok {
			// Method name itself is not a value reference; only the
			// receiver is analyzed.
			fn = &expr.Member{Recv: a.Analyze(m.Recv, scope, set), Name: m.Name, Optional: m.Optional}
		}
		return &expr.Call{Fn: fn, Args: args}
	case *expr.Lambda:
		inner := &typeres.Scope{Param: v.Param, Outer: scope}
		return &expr.Lambda{Param: v.Param, Body: a.Analyze(v.Body, inner, set)}
	case *expr.Object:
		fields := make([]expr.ObjectField, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = expr.ObjectField{Name: f.Name, Value: a.Analyze(f.Value, scope, set)}
		}
		return &expr.Object{Fields: fields}
	case *expr.Binary:
		return &expr.Binary{Op: v.Op, Left: a.Analyze(v.Left, scope, set), Right: a.Analyze(v.Right, scope, set)}
	case *expr.Conditional:
		return &expr.Conditional{
			Cond: a.Analyze(v.Cond, scope, set),
			Then: a.Analyze(v.Then, scope, set),
			Else: a.Analyze(v.Else, scope, set),
		}
	case *expr.Cast:
		return &expr.Cast{Type: v.Type, Nullable: v.Nullable, Value: a.Analyze(v.Value, scope, set)}
	default:
		return n
	}
}

func (a *Analyzer) analyzeIdent(v *expr.Ident, scope *typeres.Scope, set *Set) expr.Node {
	// Any lambda parameter of the projection, inner or enclosing, is a
	// per-element value and never a capture.
	if _, bound := scope.Lookup(v.Name); bound {
		return v
	}

	info := a.res.ClassifyReference(v, scope)
	typ, _ := a.res.ResolveType(v, scope)
	switch info.Kind {
	case typeres.RefBoundParameter, typeres.RefConstant, typeres.RefEnumLiteral:
		return v
	case typeres.RefStaticMember:
		if info.Public {
			return v
		}
		return a.capture(v.Name, info.Kind, typ, set)
	case typeres.RefInstanceMember:
		return a.capture(v.Name, info.Kind, typ, set)
	case typeres.RefOuterParameter:
		set.add(v.Name, typeres.RefOuterParameter, typ)
		return v
	default: // local or unresolvable: snapshot under its own name
		set.add(v.Name, typeres.RefLocal, typ)
		return v
	}
}

func (a *Analyzer) analyzeMember(v *expr.Member, scope *typeres.Scope, set *Set) expr.Node {
	root, _, ok := expr.SplitChain(v)
	if !ok {
		return &expr.Member{Recv: a.Analyze(v.Recv, scope, set), Name: v.Name, Optional: v.Optional}
	}

	if _, bound := scope.Lookup(root.Name); bound {
		return v
	}

	info := a.res.ClassifyReference(v, scope)
	typ, _ := a.res.ResolveType(v, scope)
	switch info.Kind {
	case typeres.RefConstant, typeres.RefEnumLiteral:
		return v
	case typeres.RefStaticMember:
		if info.Public {
			return v
		}
		return a.capture(v.Name, info.Kind, typ, set)
	case typeres.RefInstanceMember:
		return a.capture(v.Name, info.Kind, typ, set)
	default:
		// Rooted at a local or something the resolver cannot place:
		// the root value is what gets snapshotted.
		rootType, _ := a.res.ResolveType(root, scope)
		set.add(root.Name, typeres.RefLocal, rootType)
		return v
	}
}

// capture introduces the synthetic local bound once to the member's
// current value and substitutes it for the original reference.
func (a *Analyzer) capture(memberName string, kind typeres.RefKind, typ typeres.TypeDescriptor, set *Set) expr.Node {
	name := "captured_" + memberName
	set.add(name, kind, typ)
	return &expr.Ident{Name: name}
}
