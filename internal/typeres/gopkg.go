package typeres

import (
	"fmt"
	"go/types"

	"golang.org/x/tools/go/packages"
)

// CatalogFromPackage derives a Catalog from a real Go package: the named
// root struct and every struct reachable from it become catalog types.
// Pointer fields map to nullable references, slices to collections. This
// lets projections run over actual Go types without a hand-written
// catalog.
func CatalogFromPackage(pkgPath, typeName string) (*Catalog, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedTypes |
			packages.NeedModule,
	}
	pkgs, err := packages.Load(cfg, pkgPath)
	if err != nil {
		return nil, fmt.Errorf("load package %q: %w", pkgPath, err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		return nil, fmt.Errorf("package %q has compilation errors", pkgPath)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("package %q not found", pkgPath)
	}
	pkg := pkgs[0]
	if pkg.Types == nil || pkg.Types.Scope() == nil {
		return nil, fmt.Errorf("type info unavailable for package %q", pkgPath)
	}

	obj := pkg.Types.Scope().Lookup(typeName)
	if obj == nil {
		return nil, fmt.Errorf("struct %q not found in package %q", typeName, pkgPath)
	}

	d := &catalogDeriver{
		catalog: &Catalog{Types: map[string]TypeEntry{}},
		home:    pkg.Types,
		visited: map[string]bool{},
	}
	ref, ok := d.describe(obj.Type())
	if !ok {
		return nil, fmt.Errorf("%q in package %q is not a struct type", typeName, pkgPath)
	}
	if _, isStruct := d.catalog.Types[ref]; !isStruct {
		return nil, fmt.Errorf("%q in package %q is not a struct type", typeName, pkgPath)
	}
	return d.catalog, nil
}

type catalogDeriver struct {
	catalog *Catalog
	home    *types.Package
	visited map[string]bool
}

// describe returns the catalog type reference for t, registering struct
// entries as a side effect. ok is false for types the catalog cannot
// express.
func (d *catalogDeriver) describe(t types.Type) (string, bool) {
	switch v := t.(type) {
	case *types.Alias:
		return d.describe(v.Rhs())
	case *types.Basic:
		return basicRef(v)
	case *types.Pointer:
		ref, ok := d.describe(v.Elem())
		if !ok {
			return "", false
		}
		return ref + "?", true
	case *types.Slice:
		ref, ok := d.describe(v.Elem())
		if !ok {
			return "", false
		}
		return "list<" + ref + ">", true
	case *types.Named:
		return d.describeNamed(v)
	default:
		return "", false
	}
}

func (d *catalogDeriver) describeNamed(n *types.Named) (string, bool) {
	obj := n.Obj()
	st, ok := n.Underlying().(*types.Struct)
	if !ok {
		if basic, isBasic := n.Underlying().(*types.Basic); isBasic {
			return basicRef(basic)
		}
		return "", false
	}

	name := obj.Name()
	if d.visited[name] {
		return name, true
	}
	d.visited[name] = true

	goType := name
	if obj.Pkg() != nil && obj.Pkg() != d.home {
		goType = obj.Pkg().Name() + "." + name
	}
	entry := TypeEntry{Kind: "class", Go: goType, Fields: map[string]string{}}
	d.catalog.Types[name] = entry

	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Exported() {
			continue
		}
		ref, ok := d.describe(f.Type())
		if !ok {
			continue
		}
		entry.Fields[f.Name()] = ref
	}
	return name, true
}

func basicRef(b *types.Basic) (string, bool) {
	switch b.Kind() {
	case types.String:
		return "string", true
	case types.Bool:
		return "bool", true
	case types.Int, types.Int8, types.Int16, types.Int32, types.Uint, types.Uint8, types.Uint16, types.Uint32:
		return "int", true
	case types.Int64, types.Uint64:
		return "long", true
	case types.Float32:
		return "float", true
	case types.Float64:
		return "double", true
	default:
		return "", false
	}
}
