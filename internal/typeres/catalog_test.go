package typeres

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seitarof/projgen/internal/expr"
)

func testCatalog() *Catalog {
	return &Catalog{
		Types: map[string]TypeEntry{
			"Sample": {Fields: map[string]string{
				"Id":     "int",
				"Name":   "string",
				"Nest":   "Nest?",
				"Child3": "Node?",
				"Items":  "list<Item>",
				"When":   "Timestamp",
			}},
			"Nest": {Fields: map[string]string{
				"Id":   "int",
				"Name": "string",
				"Flag": "bool",
			}},
			"Node": {Fields: map[string]string{
				"Id":    "int",
				"Child": "Node?",
			}},
			"Item": {Fields: map[string]string{
				"Id":    "int",
				"Label": "string",
			}},
			"Timestamp": {Kind: "struct", Go: "time.Time"},
		},
		Symbols: map[string]SymbolEntry{
			"n":           {Kind: "local", Type: "int"},
			"limit":       {Kind: "outer-param", Type: "int"},
			"MaxLen":      {Kind: "constant", Type: "int", Public: true},
			"M.P":         {Kind: "static", Type: "string", Public: true},
			"M.hidden":    {Kind: "static", Type: "int", Public: false},
			"this.secret": {Kind: "instance", Type: "string", Public: false},
		},
		Enums: map[string][]string{
			"Color": {"Red", "Green"},
		},
	}
}

func sampleScope(t *testing.T, r *CatalogResolver) *Scope {
	t.Helper()
	self, ok := r.TypeByName("Sample")
	require.True(t, ok)
	return &Scope{Param: "s", Self: self}
}

func mustParse(t *testing.T, src string) expr.Node {
	t.Helper()
	n, err := expr.Parse(src)
	require.NoError(t, err)
	return n
}

func TestResolveType_MemberChains(t *testing.T) {
	r := NewCatalogResolver(testCatalog())
	scope := sampleScope(t, r)

	cases := []struct {
		src      string
		display  string
		nullable bool
	}{
		{"s.Id", "int", false},
		{"s.Name", "string", false},
		{"s.Nest", "Nest", true},
		{"s.Nest?.Name", "string", true},
		{"s.Nest?.Id", "int?", true},
		{"s.Child3?.Child?.Id", "int?", true},
		{"s.Items", "list<Item>", false},
		{"s.When", "Timestamp", false},
	}
	for _, tc := range cases {
		d, ok := r.ResolveType(mustParse(t, tc.src), scope)
		require.True(t, ok, tc.src)
		require.Equal(t, tc.display, d.DisplayName(), tc.src)
		require.Equal(t, tc.nullable, d.Nullable, tc.src)
	}
}

func TestResolveType_SelectTypesTheLambdaBody(t *testing.T) {
	r := NewCatalogResolver(testCatalog())
	scope := sampleScope(t, r)

	d, ok := r.ResolveType(mustParse(t, "s.Items.Select(i => i.Label)"), scope)
	require.True(t, ok)
	require.Equal(t, KindCollection, d.Kind)
	require.NotNil(t, d.Elem)
	require.Equal(t, "string", d.Elem.FullName)
}

func TestResolveType_CollectionOperators(t *testing.T) {
	r := NewCatalogResolver(testCatalog())
	scope := sampleScope(t, r)

	cases := []struct {
		src     string
		display string
	}{
		{"s.Items.Take(5)", "list<Item>"},
		{"s.Items.First()", "Item"},
		{"s.Items.FirstOrDefault()", "Item"},
		{"s.Items.Count()", "int"},
		{"s.Items.Any()", "bool"},
	}
	for _, tc := range cases {
		d, ok := r.ResolveType(mustParse(t, tc.src), scope)
		require.True(t, ok, tc.src)
		require.Equal(t, tc.display, d.DisplayName(), tc.src)
	}

	d, ok := r.ResolveType(mustParse(t, "s.Items.FirstOrDefault()"), scope)
	require.True(t, ok)
	require.True(t, d.Nullable)
}

func TestResolveType_ConditionalMergesNullBranch(t *testing.T) {
	r := NewCatalogResolver(testCatalog())
	scope := sampleScope(t, r)

	d, ok := r.ResolveType(mustParse(t, "s.Nest != null ? s.Nest.Id : null"), scope)
	require.True(t, ok)
	require.Equal(t, "int?", d.DisplayName())

	d, ok = r.ResolveType(mustParse(t, "s.Nest == null ? null : s.Nest.Id"), scope)
	require.True(t, ok)
	require.Equal(t, "int?", d.DisplayName())

	d, ok = r.ResolveType(mustParse(t, "s.Nest != null ? s.Nest.Id : (int?)null"), scope)
	require.True(t, ok)
	require.Equal(t, "int?", d.DisplayName())
}

func TestResolveType_SymbolsAndEnums(t *testing.T) {
	r := NewCatalogResolver(testCatalog())
	scope := sampleScope(t, r)

	d, ok := r.ResolveType(mustParse(t, "n"), scope)
	require.True(t, ok)
	require.Equal(t, "int", d.FullName)

	d, ok = r.ResolveType(mustParse(t, "Color.Red"), scope)
	require.True(t, ok)
	require.Equal(t, KindEnum, d.Kind)

	d, ok = r.ResolveType(mustParse(t, "M.P"), scope)
	require.True(t, ok)
	require.Equal(t, "string", d.FullName)

	_, ok = r.ResolveType(mustParse(t, "s.Missing"), scope)
	require.False(t, ok)
}

func TestResolveType_DefaultCall(t *testing.T) {
	r := NewCatalogResolver(testCatalog())
	scope := sampleScope(t, r)

	d, ok := r.ResolveType(mustParse(t, "default(Timestamp)"), scope)
	require.True(t, ok)
	require.Equal(t, KindStruct, d.Kind)
	require.Equal(t, "time.Time", d.GoType)
}

func TestClassifyReference(t *testing.T) {
	r := NewCatalogResolver(testCatalog())
	scope := sampleScope(t, r)
	inner := &Scope{Param: "i", Self: Unknown, Outer: scope}

	cases := []struct {
		src    string
		scope  *Scope
		kind   RefKind
		public bool
	}{
		{"s", scope, RefBoundParameter, false},
		{"s.Id", scope, RefBoundParameter, false},
		{"i", inner, RefBoundParameter, false},
		{"s", inner, RefBoundParameter, false},
		{"s.Id", inner, RefBoundParameter, false},
		{"n", scope, RefLocal, false},
		{"limit", scope, RefOuterParameter, false},
		{"MaxLen", scope, RefConstant, true},
		{"Color.Red", scope, RefEnumLiteral, true},
		{"M.P", scope, RefStaticMember, true},
		{"M.hidden", scope, RefStaticMember, false},
		{"this.secret", scope, RefInstanceMember, false},
		{"this.other", scope, RefInstanceMember, false},
		{"mystery", scope, RefUnknown, false},
	}
	for _, tc := range cases {
		info := r.ClassifyReference(mustParse(t, tc.src), tc.scope)
		require.Equal(t, tc.kind, info.Kind, tc.src)
		require.Equal(t, tc.public, info.Public, tc.src)
	}
}

func TestScope_LookupInnermostFirst(t *testing.T) {
	r := NewCatalogResolver(testCatalog())
	outer := sampleScope(t, r)
	item, ok := r.TypeByName("Item")
	require.True(t, ok)
	inner := &Scope{Param: "s", Self: item, Outer: outer}

	s, ok := inner.Lookup("s")
	require.True(t, ok)
	require.Equal(t, "Item", s.Self.FullName)
}
