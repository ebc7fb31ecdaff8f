package typeres

import "github.com/seitarof/projgen/internal/expr"

// RefKind classifies what a free reference inside a projection points at.
type RefKind int

const (
	RefUnknown RefKind = iota
	RefBoundParameter
	RefLocal
	RefOuterParameter
	RefInstanceMember
	RefStaticMember
	RefConstant
	RefEnumLiteral
)

var refKindNames = map[RefKind]string{
	RefUnknown:        "unknown",
	RefBoundParameter: "bound-parameter",
	RefLocal:          "local",
	RefOuterParameter: "outer-parameter",
	RefInstanceMember: "instance-member",
	RefStaticMember:   "static-member",
	RefConstant:       "constant",
	RefEnumLiteral:    "enum-literal",
}

func (k RefKind) String() string { return refKindNames[k] }

// RefInfo is the classification of one reference.
type RefInfo struct {
	Kind   RefKind
	Public bool
}

// Scope tracks lambda parameters during compilation. Self is the type of
// the innermost bound parameter; Outer chains toward the root projection.
type Scope struct {
	Param string
	Self  TypeDescriptor
	Outer *Scope
}

// Lookup finds the scope binding a parameter name, innermost first.
func (s *Scope) Lookup(name string) (*Scope, bool) {
	for cur := s; cur != nil; cur = cur.Outer {
		if cur.Param == name {
			return cur, true
		}
	}
	return nil, false
}

// Resolver is the adapter over the host language's static type knowledge.
// The compiler core only ever talks to types through this interface.
type Resolver interface {
	// ResolveType infers the static type of n inside scope. ok is false
	// when the expression cannot be typed; the schema builder then drops
	// the field.
	ResolveType(n expr.Node, scope *Scope) (TypeDescriptor, bool)

	// ClassifyReference classifies a leaf reference (an identifier or a
	// member chain rooted outside the bound parameter).
	ClassifyReference(n expr.Node, scope *Scope) RefInfo

	// ContainsOptionalChain reports whether n uses ?. anywhere.
	ContainsOptionalChain(n expr.Node) bool

	// TypeByName resolves a type name appearing in a cast.
	TypeByName(name string) (TypeDescriptor, bool)
}
