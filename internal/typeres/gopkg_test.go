package typeres

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogFromPackage(t *testing.T) {
	catalog, err := CatalogFromPackage("./testdata/models", "User")
	require.NoError(t, err)

	user, ok := catalog.Types["User"]
	require.True(t, ok)
	require.Equal(t, "int", user.Fields["ID"])
	require.Equal(t, "string", user.Fields["Name"])
	require.Equal(t, "long", user.Fields["Age"])
	require.Equal(t, "double", user.Fields["Score"])
	require.Equal(t, "bool", user.Fields["Active"])
	require.Equal(t, "Profile?", user.Fields["Profile"])
	require.Equal(t, "list<Order>", user.Fields["Orders"])
	require.NotContains(t, user.Fields, "internalNote")

	profile, ok := catalog.Types["Profile"]
	require.True(t, ok)
	require.Equal(t, "string?", profile.Fields["Avatar"])

	// Struct discovery is transitive through slices.
	require.Contains(t, catalog.Types, "Order")
	require.Contains(t, catalog.Types, "Line")
}

func TestCatalogFromPackage_ResolvesProjections(t *testing.T) {
	catalog, err := CatalogFromPackage("./testdata/models", "User")
	require.NoError(t, err)
	r := NewCatalogResolver(catalog)

	self, ok := r.TypeByName("User")
	require.True(t, ok)
	scope := &Scope{Param: "u", Self: self}

	d, ok := r.ResolveType(mustParse(t, "u.Profile?.Bio"), scope)
	require.True(t, ok)
	require.Equal(t, "string", d.FullName)
	require.True(t, d.Nullable)

	d, ok = r.ResolveType(mustParse(t, "u.Orders"), scope)
	require.True(t, ok)
	require.Equal(t, KindCollection, d.Kind)
	require.Equal(t, "Order", d.Elem.FullName)
}

func TestCatalogFromPackage_Errors(t *testing.T) {
	_, err := CatalogFromPackage("./testdata/models", "Missing")
	require.Error(t, err)

	_, err = CatalogFromPackage("./testdata/models", "Count")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a struct type")
}
