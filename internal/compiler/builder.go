package compiler

import (
	"fmt"

	"github.com/seitarof/projgen/internal/capture"
	"github.com/seitarof/projgen/internal/expr"
	"github.com/seitarof/projgen/internal/rewrite"
	"github.com/seitarof/projgen/internal/schema"
	"github.com/seitarof/projgen/internal/typeres"
)

// builder accumulates one root compilation: the capture set spans every
// nested schema built under the same root.
type builder struct {
	compiler *Compiler
	captures *capture.Set
	diags    []string
}

// schema walks the object construction's field list and builds the
// structural schema plus the rewritten construction. Name inference is
// best-effort: a field whose name cannot be derived is dropped, and a
// later duplicate name is dropped silently.
func (b *builder) schema(obj *expr.Object, scope *typeres.Scope, sourceTypeName string) (*schema.Schema, *expr.Object, error) {
	sch := &schema.Schema{SourceTypeName: sourceTypeName}
	body := &expr.Object{}

	for _, f := range obj.Fields {
		name := f.Name
		if name == "" {
			name = inferFieldName(f.Value)
		}
		if name == "" {
			continue
		}
		if fieldExists(sch, name) {
			continue
		}

		field, value, err := b.buildField(name, f.Value, scope)
		if err != nil {
			return nil, nil, err
		}
		sch.AddField(field)
		body.Fields = append(body.Fields, expr.ObjectField{Name: name, Value: value})
	}
	return sch, body, nil
}

func (b *builder) buildField(name string, value expr.Node, scope *typeres.Scope) (schema.ProjectionField, expr.Node, error) {
	c := b.compiler

	expanded, nested, isNested, diag, err := b.expandNested(value, scope)
	if err != nil {
		return schema.ProjectionField{}, nil, err
	}
	if diag != "" {
		// Field-scoped failure: pass the field through unrewritten with
		// the diagnostic attached; the projection keeps compiling.
		msg := fmt.Sprintf("field %q: %s", name, diag)
		b.diags = append(b.diags, msg)
		declared, _ := c.res.ResolveType(value, scope)
		return schema.ProjectionField{
			Name:         name,
			DeclaredType: declared,
			IsOptional:   declared.Nullable || c.res.ContainsOptionalChain(value),
			Source:       value,
			Diagnostic:   diag,
		}, value, nil
	}

	var declared typeres.TypeDescriptor
	if isNested {
		elem := typeres.TypeDescriptor{
			FullName: nested.GeneratedName,
			Kind:     typeres.KindReference,
			GoType:   nested.GeneratedName,
		}
		declared = typeres.TypeDescriptor{
			FullName: "list<" + nested.GeneratedName + ">",
			Kind:     typeres.KindCollection,
			Elem:     &elem,
		}
	} else {
		declared, _ = c.res.ResolveType(value, scope)
	}

	optional := declared.Nullable || c.res.ContainsOptionalChain(value)
	effective := declared
	if optional && effective.IsValueType() {
		effective = effective.WithNullable()
	}

	rewritten := expanded
	switch c.dialect {
	case DialectGuard:
		rewritten = c.rewriter.GuardForm(rewritten, effective, scope)
	case DialectChain:
		rewritten = rewrite.ChainForm(rewritten)
	}
	rewritten = c.analyzer.Analyze(rewritten, scope, b.captures)

	return schema.ProjectionField{
		Name:         name,
		DeclaredType: effective,
		IsOptional:   optional,
		Source:       rewritten,
		Nested:       nested,
	}, rewritten, nil
}

// inferFieldName derives a field name from a plain member access or
// identifier; anything else is un-nameable.
func inferFieldName(n expr.Node) string {
	switch v := n.(type) {
	case *expr.Ident:
		return v.Name
	case *expr.Member:
		if _, _, ok := expr.SplitChain(v); ok {
			return v.Name
		}
	}
	return ""
}

func fieldExists(s *schema.Schema, name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}
