package rewrite

import (
	"github.com/seitarof/projgen/internal/expr"
)

// ChainForm collapses explicit null-guard conditionals back into
// optional-chain form:
//
//	a != null ? a.b : null                          =>  a?.b
//	a != null && a.b != null ? (T?)(a.b.c) : null   =>  a?.b?.c
//	a != null ? { X: a.b, Y: a.c } : null           =>  { X: a?.b, Y: a?.c }  (guarded inner accesses)
//
// Conditionals that do not match the guard shape are left untouched.
// The pass is idempotent: chain-form input has no guards to collapse.
func ChainForm(n expr.Node) expr.Node {
	switch v := n.(type) {
	case *expr.Member:
		return &expr.Member{Recv: ChainForm(v.Recv), Name: v.Name, Optional: v.Optional}
	case *expr.Call:
		args := make([]expr.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = ChainForm(a)
		}
		return &expr.Call{Fn: ChainForm(v.Fn), Args: args}
	case *expr.Lambda:
		return &expr.Lambda{Param: v.Param, Body: ChainForm(v.Body)}
	case *expr.Object:
		fields := make([]expr.ObjectField, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = expr.ObjectField{Name: f.Name, Value: ChainForm(f.Value)}
		}
		return &expr.Object{Fields: fields}
	case *expr.Binary:
		return &expr.Binary{Op: v.Op, Left: ChainForm(v.Left), Right: ChainForm(v.Right)}
	case *expr.Cast:
		return &expr.Cast{Type: v.Type, Nullable: v.Nullable, Value: ChainForm(v.Value)}
	case *expr.Conditional:
		cond := &expr.Conditional{Cond: ChainForm(v.Cond), Then: ChainForm(v.Then), Else: ChainForm(v.Else)}
		if collapsed, ok := collapseGuard(cond); ok {
			return collapsed
		}
		return cond
	default:
		return n
	}
}

// guardMatch captures a recognized null-guard conditional.
type guardMatch struct {
	rootName  string
	guardSegs []string     // names of the longest checked path
	checked   map[int]bool // segment indexes that become ?. accesses
	value     expr.Node
}

func collapseGuard(c *expr.Conditional) (expr.Node, bool) {
	checks, rootName, op, ok := flattenChecks(c.Cond)
	if !ok {
		return nil, false
	}

	value, deflt := c.Then, c.Else
	if op == "==" { // inverted form: cond == null ? default : value
		value, deflt = c.Else, c.Then
	}
	if !isDefaultValue(deflt) {
		return nil, false
	}

	m, ok := buildGuardMatch(checks, rootName, value)
	if !ok {
		return nil, false
	}

	rewritten, changed := rewriteGuarded(m.value, m)
	if !changed {
		return nil, false
	}
	return rewritten, true
}

// flattenChecks decomposes a conjunction of null comparisons. Every
// check must compare a pure member chain against null with the same
// operator.
func flattenChecks(cond expr.Node) (chains [][]string, rootName, op string, ok bool) {
	var walk func(n expr.Node) bool
	walk = func(n expr.Node) bool {
		b, isBin := n.(*expr.Binary)
		if !isBin {
			return false
		}
		if b.Op == "&&" {
			return walk(b.Left) && walk(b.Right)
		}
		if b.Op != "!=" && b.Op != "==" {
			return false
		}
		if op == "" {
			op = b.Op
		} else if op != b.Op {
			return false
		}
		target := b.Left
		if expr.IsNull(target) {
			target = b.Right
		} else if !expr.IsNull(b.Right) {
			return false
		}
		root, segs, isChain := chainNames(target)
		if !isChain {
			return false
		}
		if rootName == "" {
			rootName = root
		} else if rootName != root {
			return false
		}
		chains = append(chains, segs)
		return true
	}
	if !walk(cond) || len(chains) == 0 {
		return nil, "", "", false
	}
	return chains, rootName, op, true
}

// buildGuardMatch validates that the checks form a strictly increasing
// prefix chain and records which segment indexes they guard.
func buildGuardMatch(checks [][]string, rootName string, value expr.Node) (*guardMatch, bool) {
	m := &guardMatch{rootName: rootName, checked: map[int]bool{}}
	prevLen := -1
	var longest []string
	for _, segs := range checks {
		if len(segs) <= prevLen {
			return nil, false
		}
		if !isPrefix(longest, segs) && !isPrefix(segs, longest) {
			return nil, false
		}
		prevLen = len(segs)
		longest = segs
		m.checked[len(segs)] = true
	}
	m.guardSegs = longest
	m.value = value
	return m, true
}

func (m *guardMatch) matchesRoot(name string) bool { return name == m.rootName }

// rewriteGuarded replaces every member chain in n that extends a checked
// prefix with its optional-chain form.
func rewriteGuarded(n expr.Node, m *guardMatch) (expr.Node, bool) {
	switch v := n.(type) {
	case *expr.Member:
		if out, changed := optionalizeChain(v, m); changed {
			return out, true
		}
		recv, changed := rewriteGuarded(v.Recv, m)
		return &expr.Member{Recv: recv, Name: v.Name, Optional: v.Optional}, changed
	case *expr.Cast:
		// A cast inserted for guard-form typing is redundant once the
		// chain short-circuits on its own.
		if out, changed := rewriteGuardedChainOnly(v.Value, m); changed {
			return out, true
		}
		inner, changed := rewriteGuarded(v.Value, m)
		return &expr.Cast{Type: v.Type, Nullable: v.Nullable, Value: inner}, changed
	case *expr.Object:
		fields := make([]expr.ObjectField, len(v.Fields))
		any := false
		for i, f := range v.Fields {
			val, changed := rewriteGuarded(f.Value, m)
			fields[i] = expr.ObjectField{Name: f.Name, Value: val}
			any = any || changed
		}
		return &expr.Object{Fields: fields}, any
	case *expr.Call:
		fn, fnChanged := rewriteGuarded(v.Fn, m)
		args := make([]expr.Node, len(v.Args))
		any := fnChanged
		for i, a := range v.Args {
			arg, changed := rewriteGuarded(a, m)
			args[i] = arg
			any = any || changed
		}
		return &expr.Call{Fn: fn, Args: args}, any
	case *expr.Binary:
		l, lc := rewriteGuarded(v.Left, m)
		r, rc := rewriteGuarded(v.Right, m)
		return &expr.Binary{Op: v.Op, Left: l, Right: r}, lc || rc
	case *expr.Conditional:
		c, cc := rewriteGuarded(v.Cond, m)
		t, tc := rewriteGuarded(v.Then, m)
		e, ec := rewriteGuarded(v.Else, m)
		return &expr.Conditional{Cond: c, Then: t, Else: e}, cc || tc || ec
	default:
		return n, false
	}
}

func rewriteGuardedChainOnly(n expr.Node, m *guardMatch) (expr.Node, bool) {
	mem, ok := n.(*expr.Member)
	if !ok {
		return nil, false
	}
	return optionalizeChain(mem, m)
}

// optionalizeChain turns checked boundaries of a matching chain into ?.
// accesses. A boundary applies when the chain reproduces the checked
// prefix and continues past it by at least one segment.
func optionalizeChain(n *expr.Member, m *guardMatch) (expr.Node, bool) {
	root, segs, ok := expr.SplitChain(n)
	if !ok || !m.matchesRoot(root.Name) {
		return nil, false
	}

	out := make([]expr.Segment, len(segs))
	changed := false
	for i, s := range segs {
		optional := s.Optional
		if m.checked[i] && i <= len(m.guardSegs) && prefixNamesMatch(segs, m.guardSegs, i) {
			optional = true
			changed = true
		}
		out[i] = expr.Segment{Name: s.Name, Optional: optional}
	}
	if !changed {
		return nil, false
	}
	return expr.JoinChain(root, out), true
}

func prefixNamesMatch(segs []expr.Segment, guard []string, n int) bool {
	for i := 0; i < n; i++ {
		if segs[i].Name != guard[i] {
			return false
		}
	}
	return true
}

func chainNames(n expr.Node) (root string, segs []string, ok bool) {
	rootIdent, chainSegs, ok := expr.SplitChain(n)
	if !ok {
		return "", nil, false
	}
	names := make([]string, len(chainSegs))
	for i, s := range chainSegs {
		names[i] = s.Name
	}
	return rootIdent.Name, names, true
}

func isPrefix(short, long []string) bool {
	if len(short) > len(long) {
		return false
	}
	for i := range short {
		if short[i] != long[i] {
			return false
		}
	}
	return true
}

// isDefaultValue accepts the shapes the guard form falls back to: null,
// a cast null, a zero literal, or default(T).
func isDefaultValue(n expr.Node) bool {
	switch v := n.(type) {
	case *expr.Lit:
		switch v.Kind {
		case expr.LitNull:
			return true
		case expr.LitBool:
			return v.Value == "false"
		case expr.LitInt:
			return v.Value == "0"
		case expr.LitString:
			return v.Value == ""
		case expr.LitChar:
			return v.Value == `\0`
		}
		return false
	case *expr.Cast:
		return isDefaultValue(v.Value)
	case *expr.Call:
		id, ok := v.Fn.(*expr.Ident)
		return ok && id.Name == "default" && len(v.Args) == 1
	}
	return false
}
