package expr

// Walk calls fn for n and every node below it, pre-order. Returning false
// from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case *Member:
		Walk(v.Recv, fn)
	case *Call:
		Walk(v.Fn, fn)
		for _, a := range v.Args {
			Walk(a, fn)
		}
	case *Lambda:
		Walk(v.Body, fn)
	case *Object:
		for _, f := range v.Fields {
			Walk(f.Value, fn)
		}
	case *Binary:
		Walk(v.Left, fn)
		Walk(v.Right, fn)
	case *Conditional:
		Walk(v.Cond, fn)
		Walk(v.Then, fn)
		Walk(v.Else, fn)
	case *Cast:
		Walk(v.Value, fn)
	}
}

// Equal reports structural equality of two trees.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch x := a.(type) {
	case *Ident:
		y, ok := b.(*Ident)
		return ok && x.Name == y.Name
	case *Member:
		y, ok := b.(*Member)
		return ok && x.Name == y.Name && x.Optional == y.Optional && Equal(x.Recv, y.Recv)
	case *Call:
		y, ok := b.(*Call)
		if !ok || len(x.Args) != len(y.Args) || !Equal(x.Fn, y.Fn) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *Lambda:
		y, ok := b.(*Lambda)
		return ok && x.Param == y.Param && Equal(x.Body, y.Body)
	case *Object:
		y, ok := b.(*Object)
		if !ok || len(x.Fields) != len(y.Fields) {
			return false
		}
		for i := range x.Fields {
			if x.Fields[i].Name != y.Fields[i].Name || !Equal(x.Fields[i].Value, y.Fields[i].Value) {
				return false
			}
		}
		return true
	case *Binary:
		y, ok := b.(*Binary)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Conditional:
		y, ok := b.(*Conditional)
		return ok && Equal(x.Cond, y.Cond) && Equal(x.Then, y.Then) && Equal(x.Else, y.Else)
	case *Cast:
		y, ok := b.(*Cast)
		return ok && x.Type == y.Type && x.Nullable == y.Nullable && Equal(x.Value, y.Value)
	case *Lit:
		y, ok := b.(*Lit)
		return ok && x.Kind == y.Kind && x.Value == y.Value
	}
	return false
}

// ContainsOptional reports whether any ?. access appears in the tree.
func ContainsOptional(n Node) bool {
	found := false
	Walk(n, func(m Node) bool {
		if mm, ok := m.(*Member); ok && mm.Optional {
			found = true
		}
		return !found
	})
	return found
}

// Segment is one link of a member-access chain.
type Segment struct {
	Name     string
	Optional bool
}

// SplitChain decomposes a pure member-access chain into its root and
// ordered segments. ok is false when n is not a chain of Member nodes
// ending in an Ident root.
func SplitChain(n Node) (root *Ident, segs []Segment, ok bool) {
	var rev []Segment
	for {
		switch v := n.(type) {
		case *Member:
			rev = append(rev, Segment{Name: v.Name, Optional: v.Optional})
			n = v.Recv
		case *Ident:
			segs = make([]Segment, 0, len(rev))
			for i := len(rev) - 1; i >= 0; i-- {
				segs = append(segs, rev[i])
			}
			return v, segs, true
		default:
			return nil, nil, false
		}
	}
}

// JoinChain rebuilds a member chain from a root and segments.
func JoinChain(root *Ident, segs []Segment) Node {
	var n Node = root
	for _, s := range segs {
		n = &Member{Recv: n, Name: s.Name, Optional: s.Optional}
	}
	return n
}
