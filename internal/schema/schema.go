package schema

import (
	"github.com/seitarof/projgen/internal/expr"
	"github.com/seitarof/projgen/internal/typeres"
)

// ProjectionField is one named output field of a projection.
type ProjectionField struct {
	Name         string
	DeclaredType typeres.TypeDescriptor
	IsOptional   bool
	Source       expr.Node

	// Nested is set only when the field projects a collection element
	// into a sub-schema. The field owns it outright; schemas form a
	// tree, never a graph.
	Nested *Schema

	// Diagnostic is set when a rewrite could not be applied to this
	// field; the source expression is then passed through unchanged and
	// the emitter renders an inline marker instead of a mapping.
	Diagnostic string
}

// Schema is the inferred structural shape of one projection's output.
// Field order is insertion order and is significant for both hashing and
// emitted declaration order.
type Schema struct {
	SourceTypeName string
	Fields         []ProjectionField

	// Param is the lambda parameter name the projection binds its
	// element to; the emitter reuses it as the mapper argument name.
	Param string

	// GeneratedName is assigned once the schema's identity has been
	// resolved against the registry.
	GeneratedName string
}

// AddField appends f unless a field with the same name is already
// present; later duplicates are dropped silently, matching the
// best-effort name inference policy.
func (s *Schema) AddField(f ProjectionField) {
	for _, existing := range s.Fields {
		if existing.Name == f.Name {
			return
		}
	}
	s.Fields = append(s.Fields, f)
}

// Empty reports whether the schema has no fields. An empty schema is not
// compilable.
func (s *Schema) Empty() bool { return len(s.Fields) == 0 }

// GeneratedTypeName derives the conventional generated name for a schema
// from its source element type and identity hash.
func GeneratedTypeName(sourceType, hash string) string {
	return sourceType + "Dto_" + hash
}
