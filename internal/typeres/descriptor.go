package typeres

import (
	"strings"

	"github.com/seitarof/projgen/internal/expr"
)

// Kind is the coarse type category that drives default-value policy and
// emission.
type Kind int

const (
	KindReference Kind = iota
	KindString
	KindBool
	KindChar
	KindNumeric
	KindEnum
	KindStruct
	KindCollection
	KindUnknown
)

// TypeDescriptor is the resolver-supplied identity of one type.
type TypeDescriptor struct {
	FullName string
	Kind     Kind
	Nullable bool
	Elem     *TypeDescriptor // collection element, nil otherwise
	GoType   string          // rendering hint for the emitter, may be empty
}

// Unknown is the descriptor for unresolvable expressions.
var Unknown = TypeDescriptor{FullName: "unknown", Kind: KindUnknown}

// IsValueType reports whether the descriptor names a value type.
func (d TypeDescriptor) IsValueType() bool {
	switch d.Kind {
	case KindBool, KindChar, KindNumeric, KindEnum, KindStruct:
		return true
	}
	return false
}

// DisplayName renders the descriptor for signatures and diagnostics,
// e.g. "int?" or "list<Item>". The "?" suffix marks nullable value
// types only; reference types carry nullability in the flag alone.
func (d TypeDescriptor) DisplayName() string {
	name := d.FullName
	if d.Kind == KindCollection && d.Elem != nil {
		name = "list<" + d.Elem.DisplayName() + ">"
	}
	if d.Nullable && d.IsValueType() {
		name += "?"
	}
	return name
}

// WithNullable returns a copy with the nullable flag set.
func (d TypeDescriptor) WithNullable() TypeDescriptor {
	d.Nullable = true
	return d
}

// DefaultLiteral returns the expression a guarded rewrite falls back to
// when the null check fails:
//
//	reference types and nullable value types -> null
//	bool                                    -> false
//	char                                    -> '\0'
//	string                                  -> ""
//	any other value type                    -> zero value, default(T)
func (d TypeDescriptor) DefaultLiteral() expr.Node {
	if d.Nullable && d.IsValueType() {
		return expr.Null()
	}
	switch d.Kind {
	case KindBool:
		return &expr.Lit{Kind: expr.LitBool, Value: "false"}
	case KindChar:
		return &expr.Lit{Kind: expr.LitChar, Value: `\0`}
	case KindString:
		return &expr.Lit{Kind: expr.LitString, Value: ""}
	case KindNumeric:
		return &expr.Lit{Kind: expr.LitInt, Value: "0"}
	case KindEnum, KindStruct:
		return &expr.Call{Fn: &expr.Ident{Name: "default"}, Args: []expr.Node{&expr.Ident{Name: d.FullName}}}
	}
	return expr.Null()
}

// ParseTypeRef parses a catalog type reference such as "int", "Nest?" or
// "list<Item>", resolving names through lookup.
func ParseTypeRef(ref string, lookup func(name string) (TypeDescriptor, bool)) (TypeDescriptor, bool) {
	ref = strings.TrimSpace(ref)
	nullable := false
	if strings.HasSuffix(ref, "?") {
		nullable = true
		ref = strings.TrimSuffix(ref, "?")
	}
	if inner, ok := strings.CutPrefix(ref, "list<"); ok {
		inner = strings.TrimSuffix(inner, ">")
		elem, ok := ParseTypeRef(inner, lookup)
		if !ok {
			return Unknown, false
		}
		d := TypeDescriptor{FullName: "list<" + elem.FullName + ">", Kind: KindCollection, Nullable: nullable, Elem: &elem}
		return d, true
	}
	d, ok := lookup(ref)
	if !ok {
		return Unknown, false
	}
	if nullable {
		d.Nullable = true
	}
	return d, true
}
