// Package rewrite implements the two null-chain rewrite directions:
// optional-chain form to explicit-guard form for execution targets that
// cannot short-circuit on null, and the reverse simplification for
// targets that can.
package rewrite

import (
	"github.com/seitarof/projgen/internal/expr"
	"github.com/seitarof/projgen/internal/typeres"
)

// Rewriter rewrites field source expressions. It consults the resolver
// only to decide whether a guarded path needs a disambiguating cast.
type Rewriter struct {
	res typeres.Resolver
}

// New creates a Rewriter over res.
func New(res typeres.Resolver) *Rewriter {
	return &Rewriter{res: res}
}

// GuardForm rewrites every optional-chain access in n into an explicit
// null-guard conditional:
//
//	a?.b?.c  =>  a != null && a.b != null ? a.b.c : <default>
//
// declared is the owning field's declared (possibly nullable) type; it
// decides the default value and whether the dotted path needs a cast.
// The input is normalized through ChainForm first, so feeding an already
// guarded expression back in is a no-op.
func (r *Rewriter) GuardForm(n expr.Node, declared typeres.TypeDescriptor, scope *typeres.Scope) expr.Node {
	return r.guard(ChainForm(n), declared, scope)
}

func (r *Rewriter) guard(n expr.Node, declared typeres.TypeDescriptor, scope *typeres.Scope) expr.Node {
	switch v := n.(type) {
	case *expr.Member:
		if chain := r.guardChain(v, declared, scope); chain != nil {
			return chain
		}
		return &expr.Member{Recv: r.guard(v.Recv, declared, scope), Name: v.Name, Optional: v.Optional}
	case *expr.Call:
		args := make([]expr.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = r.guard(a, declared, scope)
		}
		return &expr.Call{Fn: r.guard(v.Fn, declared, scope), Args: args}
	case *expr.Binary:
		return &expr.Binary{Op: v.Op, Left: r.guard(v.Left, declared, scope), Right: r.guard(v.Right, declared, scope)}
	case *expr.Conditional:
		return &expr.Conditional{
			Cond: r.guard(v.Cond, declared, scope),
			Then: r.guard(v.Then, declared, scope),
			Else: r.guard(v.Else, declared, scope),
		}
	case *expr.Cast:
		return &expr.Cast{Type: v.Type, Nullable: v.Nullable, Value: r.guard(v.Value, declared, scope)}
	default:
		// Lambda bodies belong to nested projections and are rewritten
		// by their own builder pass; identifiers, literals and object
		// constructions have nothing to guard at this level.
		return n
	}
}

// guardChain handles a pure member-access chain with at least one ?.
// link. Returns nil when n is not such a chain.
func (r *Rewriter) guardChain(n *expr.Member, declared typeres.TypeDescriptor, scope *typeres.Scope) expr.Node {
	root, segs, ok := expr.SplitChain(n)
	if !ok {
		return nil
	}
	hasOptional := false
	for _, s := range segs {
		if s.Optional {
			hasOptional = true
			break
		}
	}
	if !hasOptional {
		return nil
	}

	// Every ?. link contributes a null check on its receiver prefix.
	var cond expr.Node
	for i, s := range segs {
		if !s.Optional {
			continue
		}
		prefix := plainChain(root, segs[:i])
		check := &expr.Binary{Op: "!=", Left: prefix, Right: expr.Null()}
		if cond == nil {
			cond = check
		} else {
			cond = &expr.Binary{Op: "&&", Left: cond, Right: check}
		}
	}

	path := plainChain(root, segs)
	then := r.castIfNeeded(path, declared, scope)
	return &expr.Conditional{Cond: cond, Then: then, Else: declared.DefaultLiteral()}
}

// castIfNeeded wraps the dotted path in a cast when its static type
// differs from the field's declared type; without it the guarded
// conditional's branches would disagree on the target type.
func (r *Rewriter) castIfNeeded(path expr.Node, declared typeres.TypeDescriptor, scope *typeres.Scope) expr.Node {
	if declared.Kind == typeres.KindUnknown {
		return path
	}
	static, ok := r.res.ResolveType(path, scope)
	if !ok {
		return path
	}
	if static.DisplayName() == declared.DisplayName() {
		return path
	}
	nullable := declared.Nullable && declared.IsValueType()
	return &expr.Cast{Type: declared.FullName, Nullable: nullable, Value: path}
}

func plainChain(root *expr.Ident, segs []expr.Segment) expr.Node {
	plain := make([]expr.Segment, len(segs))
	for i, s := range segs {
		plain[i] = expr.Segment{Name: s.Name}
	}
	return expr.JoinChain(root, plain)
}
