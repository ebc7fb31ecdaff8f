package typeres

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/seitarof/projgen/internal/expr"
)

// Catalog is the YAML-declared type universe a CatalogResolver answers
// from. Builtin scalar types are always present and need no declaration.
type Catalog struct {
	Types   map[string]TypeEntry   `yaml:"types"`
	Symbols map[string]SymbolEntry `yaml:"symbols"`
	Enums   map[string][]string    `yaml:"enums"`
}

// TypeEntry declares one user type.
type TypeEntry struct {
	Kind   string            `yaml:"kind"` // class (default) or struct
	Go     string            `yaml:"go"`   // Go rendering hint
	Fields map[string]string `yaml:"fields"`
}

// SymbolEntry declares one free name visible to projections.
type SymbolEntry struct {
	Kind   string `yaml:"kind"` // local, outer-param, constant, static, instance
	Type   string `yaml:"type"`
	Public bool   `yaml:"public"`
}

// LoadCatalog reads a catalog YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %q: %w", path, err)
	}
	return &c, nil
}

// CatalogResolver implements Resolver over a Catalog.
type CatalogResolver struct {
	catalog *Catalog
}

// NewCatalogResolver builds a resolver over c.
func NewCatalogResolver(c *Catalog) *CatalogResolver {
	if c == nil {
		c = &Catalog{}
	}
	return &CatalogResolver{catalog: c}
}

var builtins = map[string]TypeDescriptor{
	"int":     {FullName: "int", Kind: KindNumeric, GoType: "int"},
	"long":    {FullName: "long", Kind: KindNumeric, GoType: "int64"},
	"short":   {FullName: "short", Kind: KindNumeric, GoType: "int16"},
	"byte":    {FullName: "byte", Kind: KindNumeric, GoType: "byte"},
	"float":   {FullName: "float", Kind: KindNumeric, GoType: "float32"},
	"double":  {FullName: "double", Kind: KindNumeric, GoType: "float64"},
	"decimal": {FullName: "decimal", Kind: KindNumeric, GoType: "float64"},
	"bool":    {FullName: "bool", Kind: KindBool, GoType: "bool"},
	"char":    {FullName: "char", Kind: KindChar, GoType: "rune"},
	"string":  {FullName: "string", Kind: KindString, GoType: "string"},
	"object":  {FullName: "object", Kind: KindReference, GoType: "any"},
}

// TypeByName resolves a type name: builtins, declared types, enums.
func (r *CatalogResolver) TypeByName(name string) (TypeDescriptor, bool) {
	return ParseTypeRef(name, r.lookupPlain)
}

func (r *CatalogResolver) lookupPlain(name string) (TypeDescriptor, bool) {
	if d, ok := builtins[name]; ok {
		return d, true
	}
	if e, ok := r.catalog.Types[name]; ok {
		kind := KindReference
		if e.Kind == "struct" {
			kind = KindStruct
		}
		goType := e.Go
		if goType == "" {
			goType = name
		}
		return TypeDescriptor{FullName: name, Kind: kind, GoType: goType}, true
	}
	if _, ok := r.catalog.Enums[name]; ok {
		return TypeDescriptor{FullName: name, Kind: KindEnum, GoType: name}, true
	}
	return Unknown, false
}

// FieldType resolves a member access on base.
func (r *CatalogResolver) FieldType(base TypeDescriptor, name string) (TypeDescriptor, bool) {
	entry, ok := r.catalog.Types[base.FullName]
	if !ok {
		return Unknown, false
	}
	ref, ok := entry.Fields[name]
	if !ok {
		return Unknown, false
	}
	return ParseTypeRef(ref, r.lookupPlain)
}

// ContainsOptionalChain implements Resolver.
func (r *CatalogResolver) ContainsOptionalChain(n expr.Node) bool {
	return expr.ContainsOptional(n)
}

// ResolveType implements Resolver. Resolution is best-effort: anything the
// catalog cannot answer comes back !ok and the caller decides whether that
// drops a field or merely skips a cast.
func (r *CatalogResolver) ResolveType(n expr.Node, scope *Scope) (TypeDescriptor, bool) {
	switch v := n.(type) {
	case *expr.Lit:
		switch v.Kind {
		case expr.LitNull:
			return TypeDescriptor{FullName: "object", Kind: KindReference, Nullable: true}, true
		case expr.LitBool:
			return builtins["bool"], true
		case expr.LitInt:
			return builtins["int"], true
		case expr.LitString:
			return builtins["string"], true
		case expr.LitChar:
			return builtins["char"], true
		}
	case *expr.Ident:
		if s, ok := scope.Lookup(v.Name); ok {
			return s.Self, true
		}
		if sym, ok := r.catalog.Symbols[v.Name]; ok && sym.Type != "" {
			return ParseTypeRef(sym.Type, r.lookupPlain)
		}
		return Unknown, false
	case *expr.Member:
		return r.resolveMember(v, scope)
	case *expr.Call:
		return r.resolveCall(v, scope)
	case *expr.Conditional:
		if isNullBranch(v.Then) {
			els, ok := r.ResolveType(v.Else, scope)
			if !ok {
				return Unknown, false
			}
			return els.WithNullable(), true
		}
		then, ok := r.ResolveType(v.Then, scope)
		if !ok {
			return Unknown, false
		}
		if isNullBranch(v.Else) {
			return then.WithNullable(), true
		}
		return then, true
	case *expr.Cast:
		d, ok := r.TypeByName(v.Type)
		if !ok {
			return Unknown, false
		}
		if v.Nullable {
			d.Nullable = true
		}
		return d, true
	case *expr.Binary:
		return builtins["bool"], true
	case *expr.Object:
		return TypeDescriptor{FullName: "anonymous", Kind: KindReference}, true
	}
	return Unknown, false
}

// isNullBranch recognizes a null conditional branch, including the
// cast-wrapped form "(T?)null".
func isNullBranch(n expr.Node) bool {
	for {
		c, ok := n.(*expr.Cast)
		if !ok {
			return expr.IsNull(n)
		}
		n = c.Value
	}
}

func (r *CatalogResolver) resolveMember(m *expr.Member, scope *Scope) (TypeDescriptor, bool) {
	root, segs, ok := expr.SplitChain(m)
	if !ok {
		// Receiver is a call or other expression; type it and walk the
		// remaining single segment from there.
		base, ok := r.ResolveType(m.Recv, scope)
		if !ok {
			return Unknown, false
		}
		d, ok := r.FieldType(base, m.Name)
		if !ok {
			return Unknown, false
		}
		if m.Optional {
			d.Nullable = true
		}
		return d, true
	}

	// Enum literal: Color.Red
	if _, isEnum := r.catalog.Enums[root.Name]; isEnum && len(segs) == 1 {
		return TypeDescriptor{FullName: root.Name, Kind: KindEnum, GoType: root.Name}, true
	}

	// Dotted symbol: Config.Default, this.secret
	dotted := root.Name
	for _, s := range segs {
		dotted += "." + s.Name
	}
	if sym, ok := r.catalog.Symbols[dotted]; ok && sym.Type != "" {
		return ParseTypeRef(sym.Type, r.lookupPlain)
	}

	base, ok := r.ResolveType(root, scope)
	if !ok {
		return Unknown, false
	}
	cur := base
	sawOptional := false
	for _, seg := range segs {
		if seg.Optional {
			sawOptional = true
		}
		next, ok := r.FieldType(cur, seg.Name)
		if !ok {
			return Unknown, false
		}
		cur = next
	}
	if sawOptional {
		cur.Nullable = true
	}
	return cur, true
}

// resolveCall types the well-known collection operators plus default(T).
func (r *CatalogResolver) resolveCall(c *expr.Call, scope *Scope) (TypeDescriptor, bool) {
	if id, ok := c.Fn.(*expr.Ident); ok && id.Name == "default" && len(c.Args) == 1 {
		if arg, ok := c.Args[0].(*expr.Ident); ok {
			return r.TypeByName(arg.Name)
		}
		return Unknown, false
	}

	m, ok := c.Fn.(*expr.Member)
	if !ok {
		return Unknown, false
	}
	recv, ok := r.ResolveType(m.Recv, scope)
	if !ok || recv.Kind != KindCollection || recv.Elem == nil {
		return Unknown, false
	}

	switch m.Name {
	case "Where", "Take", "Skip", "Distinct", "ToList", "ToArray", "OrderBy", "OrderByDescending":
		return recv, true
	case "Select":
		if len(c.Args) == 1 {
			if lam, ok := c.Args[0].(*expr.Lambda); ok {
				inner := &Scope{Param: lam.Param, Self: *recv.Elem, Outer: scope}
				elem, ok := r.ResolveType(lam.Body, inner)
				if !ok {
					return Unknown, false
				}
				return TypeDescriptor{
					FullName: "list<" + elem.FullName + ">",
					Kind:     KindCollection,
					Elem:     &elem,
				}, true
			}
		}
		return Unknown, false
	case "First", "Single", "Last":
		return *recv.Elem, true
	case "FirstOrDefault", "SingleOrDefault", "LastOrDefault":
		return recv.Elem.WithNullable(), true
	case "Count", "Sum":
		return builtins["int"], true
	case "Any", "All", "Contains":
		return builtins["bool"], true
	}
	return Unknown, false
}

// ClassifyReference implements Resolver.
func (r *CatalogResolver) ClassifyReference(n expr.Node, scope *Scope) RefInfo {
	switch v := n.(type) {
	case *expr.Ident:
		// Parameters of enclosing lambdas within the same projection are
		// still bound; RefOuterParameter is reserved for parameters of
		// the surrounding host function, declared as symbols.
		if _, ok := scope.Lookup(v.Name); ok {
			return RefInfo{Kind: RefBoundParameter}
		}
		return r.classifySymbol(v.Name)
	case *expr.Member:
		root, segs, ok := expr.SplitChain(v)
		if !ok {
			return RefInfo{Kind: RefUnknown}
		}
		if _, bound := scope.Lookup(root.Name); bound {
			return RefInfo{Kind: RefBoundParameter}
		}
		if _, isEnum := r.catalog.Enums[root.Name]; isEnum && len(segs) == 1 {
			return RefInfo{Kind: RefEnumLiteral, Public: true}
		}
		dotted := root.Name
		for _, s := range segs {
			dotted += "." + s.Name
		}
		return r.classifySymbol(dotted)
	}
	return RefInfo{Kind: RefUnknown}
}

func (r *CatalogResolver) classifySymbol(name string) RefInfo {
	sym, ok := r.catalog.Symbols[name]
	if !ok {
		if strings.HasPrefix(name, "this.") {
			return RefInfo{Kind: RefInstanceMember}
		}
		return RefInfo{Kind: RefUnknown}
	}
	switch sym.Kind {
	case "local":
		return RefInfo{Kind: RefLocal}
	case "outer-param":
		return RefInfo{Kind: RefOuterParameter}
	case "constant":
		return RefInfo{Kind: RefConstant, Public: true}
	case "static":
		return RefInfo{Kind: RefStaticMember, Public: sym.Public}
	case "instance":
		return RefInfo{Kind: RefInstanceMember, Public: sym.Public}
	}
	return RefInfo{Kind: RefUnknown}
}
