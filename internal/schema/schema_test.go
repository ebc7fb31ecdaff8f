package schema

import (
	"testing"

	"github.com/seitarof/projgen/internal/typeres"
)

func TestAddField_DropsDuplicates(t *testing.T) {
	s := &Schema{SourceTypeName: "Sample"}
	s.AddField(ProjectionField{Name: "Id", DeclaredType: typeres.TypeDescriptor{FullName: "int"}})
	s.AddField(ProjectionField{Name: "Id", DeclaredType: typeres.TypeDescriptor{FullName: "string"}})

	if len(s.Fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(s.Fields))
	}
	if s.Fields[0].DeclaredType.FullName != "int" {
		t.Fatal("first registration must win")
	}
}

func TestEmpty(t *testing.T) {
	s := &Schema{}
	if !s.Empty() {
		t.Fatal("expected empty")
	}
	s.AddField(ProjectionField{Name: "Id"})
	if s.Empty() {
		t.Fatal("expected non-empty")
	}
}

func TestGeneratedTypeName(t *testing.T) {
	if got := GeneratedTypeName("Item", "d41d8cd9"); got != "ItemDto_d41d8cd9" {
		t.Fatalf("unexpected name %q", got)
	}
}
