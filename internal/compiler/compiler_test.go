package compiler

import (
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/seitarof/projgen/internal/expr"
	"github.com/seitarof/projgen/internal/identity"
	"github.com/seitarof/projgen/internal/schema"
	"github.com/seitarof/projgen/internal/typeres"
)

func testResolver() *typeres.CatalogResolver {
	return typeres.NewCatalogResolver(&typeres.Catalog{
		Types: map[string]typeres.TypeEntry{
			"Sample": {Fields: map[string]string{
				"Id":     "int",
				"Name":   "string",
				"Nest":   "Nest?",
				"Child3": "Node?",
				"Items":  "list<Item>",
			}},
			"Nest": {Fields: map[string]string{
				"Id":   "int",
				"Name": "string",
			}},
			"Node": {Fields: map[string]string{
				"Id":    "int",
				"Child": "Node?",
			}},
			"Item": {Fields: map[string]string{
				"Id":    "int",
				"Name":  "string",
				"Label": "string",
			}},
		},
		Symbols: map[string]typeres.SymbolEntry{
			"limit": {Kind: "outer-param", Type: "int"},
			"M.P":   {Kind: "static", Type: "string", Public: true},
		},
	})
}

func newCompiler(t *testing.T, dialect Dialect) (*Compiler, *identity.Registry) {
	t.Helper()
	reg := identity.NewRegistry()
	return New(testResolver(), reg, dialect), reg
}

func compile(t *testing.T, c *Compiler, src, source string) *CompiledProjection {
	t.Helper()
	n, err := expr.Parse(src)
	require.NoError(t, err)
	out, err := c.Compile(n, source)
	require.NoError(t, err)
	return out
}

func TestCompile_BasicProjection(t *testing.T) {
	c, _ := newCompiler(t, DialectGuard)
	out := compile(t, c, "s => { Id: s.Id, Name: s.Nest?.Name }", "Sample")

	sch := out.Schema
	if len(sch.Fields) != 2 {
		t.Fatalf("unexpected schema: %s", spew.Sdump(sch))
	}
	require.Equal(t, "Id", sch.Fields[0].Name)
	require.Equal(t, "int", sch.Fields[0].DeclaredType.DisplayName())
	require.False(t, sch.Fields[0].IsOptional)
	require.Equal(t, "Name", sch.Fields[1].Name)
	require.Equal(t, "string", sch.Fields[1].DeclaredType.DisplayName())
	require.True(t, sch.Fields[1].IsOptional)

	require.Equal(t, "Id:int:false\nName:string:true", out.Identity.Signature)
	require.Equal(t, schema.GeneratedTypeName("Sample", out.Identity.Hash), sch.GeneratedName)
	require.Equal(t, "s", sch.Param)
	require.Zero(t, out.Captures.Len())
	require.Empty(t, out.Diagnostics)
}

func TestCompile_GuardDialectRewritesChains(t *testing.T) {
	c, _ := newCompiler(t, DialectGuard)
	out := compile(t, c, "s => { Name: s.Nest?.Name }", "Sample")

	want, err := expr.Parse(`s.Nest != null ? s.Nest.Name : ""`)
	require.NoError(t, err)
	if !expr.Equal(out.Schema.Fields[0].Source, want) {
		t.Fatalf("unexpected rewrite: %s", expr.Sprint(out.Schema.Fields[0].Source))
	}
}

func TestCompile_ChainDialectCollapsesGuards(t *testing.T) {
	c, _ := newCompiler(t, DialectChain)
	out := compile(t, c, "s => { Id: s.Nest != null ? s.Nest.Id : (int?)null }", "Sample")

	want, err := expr.Parse("s.Nest?.Id")
	require.NoError(t, err)
	if !expr.Equal(out.Schema.Fields[0].Source, want) {
		t.Fatalf("unexpected rewrite: %s", expr.Sprint(out.Schema.Fields[0].Source))
	}
	require.True(t, out.Schema.Fields[0].IsOptional)
}

func TestCompile_HashIgnoresOptionalitySpelling(t *testing.T) {
	c, _ := newCompiler(t, DialectGuard)
	chained := compile(t, c, "s => { Id: s.Nest?.Id }", "Sample")
	guarded := compile(t, c, "s => { Id: s.Nest != null ? s.Nest.Id : (int?)null }", "Sample")

	require.Equal(t, chained.Identity.Hash, guarded.Identity.Hash)
	require.Equal(t, chained.Schema.GeneratedName, guarded.Schema.GeneratedName)
}

func TestCompile_StructurallyIdenticalProjectionsShareOneType(t *testing.T) {
	c, reg := newCompiler(t, DialectGuard)
	first := compile(t, c, "s => { Id: s.Id, Name: s.Name }", "Sample")
	second := compile(t, c, "i => { Id: i.Id, Name: i.Name }", "Item")

	require.Equal(t, first.Identity.Hash, second.Identity.Hash)
	// The first registration's name wins for both call sites.
	require.Equal(t, first.Schema.GeneratedName, second.Schema.GeneratedName)
	require.Len(t, reg.Names(), 1)
}

func TestCompile_BareFieldNamesInferred(t *testing.T) {
	c, _ := newCompiler(t, DialectGuard)
	out := compile(t, c, "s => { s.Id, s.Nest?.Name }", "Sample")

	require.Equal(t, "Id", out.Schema.Fields[0].Name)
	require.Equal(t, "Name", out.Schema.Fields[1].Name)
}

func TestCompile_DuplicateFieldDropped(t *testing.T) {
	c, _ := newCompiler(t, DialectGuard)
	out := compile(t, c, "s => { Id: s.Id, Id: s.Name }", "Sample")

	require.Len(t, out.Schema.Fields, 1)
	require.Equal(t, "int", out.Schema.Fields[0].DeclaredType.DisplayName())
}

func TestCompile_NotProjection(t *testing.T) {
	c, _ := newCompiler(t, DialectGuard)

	for _, src := range []string{"s => s.Id", "s.Id"} {
		n, err := expr.Parse(src)
		require.NoError(t, err)
		_, err = c.Compile(n, "Sample")
		require.ErrorIs(t, err, ErrNotProjection, src)
	}
}

func TestCompile_UnknownSourceType(t *testing.T) {
	c, _ := newCompiler(t, DialectGuard)
	n, err := expr.Parse("s => { Id: s.Id }")
	require.NoError(t, err)
	_, err = c.Compile(n, "Mystery")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Mystery")
}

func TestCompile_NothingToGenerate(t *testing.T) {
	c, _ := newCompiler(t, DialectGuard)
	n, err := expr.Parse("s => { s.Items.First() }")
	require.NoError(t, err)
	_, err = c.Compile(n, "Sample")
	require.ErrorIs(t, err, ErrNothingToGenerate)
}

func TestCompile_NestedProjection(t *testing.T) {
	c, reg := newCompiler(t, DialectGuard)
	out := compile(t, c, "s => { Id: s.Id, Tags: s.Items.Select(i => { Id: i.Id, Label: i.Label }) }", "Sample")

	tags := out.Schema.Fields[1]
	require.NotNil(t, tags.Nested)
	nested := tags.Nested
	require.Equal(t, schema.GeneratedTypeName("Item", identity.Compute(nested).Hash), nested.GeneratedName)
	require.Equal(t, "i", nested.Param)
	require.Equal(t, "list<"+nested.GeneratedName+">", tags.DeclaredType.FullName)
	require.Equal(t, typeres.KindCollection, tags.DeclaredType.Kind)

	// Nested identity registers before the root's.
	names := reg.Names()
	require.Len(t, names, 2)
	require.Equal(t, nested.GeneratedName, names[0])
	require.Equal(t, out.Schema.GeneratedName, names[1])
}

func TestCompile_NestedPreservesTrailingOps(t *testing.T) {
	c, _ := newCompiler(t, DialectGuard)
	out := compile(t, c, "s => { Tags: s.Items.Select(i => { Id: i.Id }).Take(5) }", "Sample")

	rendered := expr.Sprint(out.Schema.Fields[0].Source)
	if !strings.HasSuffix(rendered, ".Take(5)") {
		t.Fatalf("trailing operator lost: %s", rendered)
	}
	require.NotNil(t, out.Schema.Fields[0].Nested)
}

func TestCompile_NestedSchemasDedupAcrossRoots(t *testing.T) {
	c, reg := newCompiler(t, DialectGuard)
	a := compile(t, c, "s => { Tags: s.Items.Select(i => { Id: i.Id }) }", "Sample")
	b := compile(t, c, "s => { Name: s.Name, Tags: s.Items.Select(x => { Id: x.Id }) }", "Sample")

	require.Equal(t, a.Schema.Fields[0].Nested.GeneratedName, b.Schema.Fields[1].Nested.GeneratedName)
	// Two roots plus one shared nested type.
	require.Len(t, reg.Names(), 3)
}

func TestCompile_UnknownMapReceiverIsDiagnostic(t *testing.T) {
	c, _ := newCompiler(t, DialectGuard)
	out := compile(t, c, "s => { Id: s.Id, Tags: s.Missing.Select(i => { Id: i.Id }) }", "Sample")

	require.Len(t, out.Diagnostics, 1)
	require.Contains(t, out.Diagnostics[0], "Tags")
	require.Contains(t, out.Diagnostics[0], "not a known collection")

	tags := out.Schema.Fields[1]
	require.NotEmpty(t, tags.Diagnostic)
	require.Nil(t, tags.Nested)
}

func TestCompile_CapturesCollected(t *testing.T) {
	c, _ := newCompiler(t, DialectGuard)
	out := compile(t, c, "s => { Id: s.Id, Lim: limit, Tag: M.P }", "Sample")

	require.Equal(t, []string{"limit"}, out.Captures.Names())
}

func TestCompile_RootParamReferencedFromNestedLambdaIsNotCaptured(t *testing.T) {
	c, _ := newCompiler(t, DialectGuard)
	out := compile(t, c, "s => { Id: s.Id, Tags: s.Items.Select(i => { Id: i.Id, Owner: s.Name }) }", "Sample")

	require.Zero(t, out.Captures.Len())
}

func TestCompile_CollisionSurfaces(t *testing.T) {
	reg := identity.NewRegistry()
	c := New(testResolver(), reg, DialectGuard)

	n, err := expr.Parse("s => { Id: s.Id }")
	require.NoError(t, err)
	out, err := c.Compile(n, "Sample")
	require.NoError(t, err)

	forged := identity.Identity{Hash: out.Identity.Hash, Signature: "something else"}
	_, err = reg.ResolveOrRegister(forged, "Forged")
	require.ErrorIs(t, err, identity.ErrCollision)
}
