// Package compiler turns parsed projection expressions into structural
// schemas, content-addressed identities, rewritten expression trees and
// capture sets. One Compiler may serve concurrent compilations; the only
// shared state is the injected identity registry.
package compiler

import (
	"errors"
	"fmt"

	"github.com/seitarof/projgen/internal/capture"
	"github.com/seitarof/projgen/internal/expr"
	"github.com/seitarof/projgen/internal/identity"
	"github.com/seitarof/projgen/internal/rewrite"
	"github.com/seitarof/projgen/internal/schema"
	"github.com/seitarof/projgen/internal/typeres"
)

// Dialect selects the normal form the rewritten expression takes.
type Dialect int

const (
	// DialectGuard rewrites optional chains into explicit null guards,
	// for execution targets that cannot short-circuit on null.
	DialectGuard Dialect = iota
	// DialectChain collapses explicit guards into optional chains.
	DialectChain
)

// ErrNothingToGenerate signals a projection with no nameable fields.
// Callers skip emission for the call site; it is not a failure.
var ErrNothingToGenerate = errors.New("projection has no nameable fields, nothing to generate")

// ErrNotProjection signals an expression that is not a single-parameter
// lambda producing an object construction.
var ErrNotProjection = errors.New("expression is not a projection")

// CompiledProjection is the result of one successful compilation.
type CompiledProjection struct {
	Schema     *schema.Schema
	SourceType typeres.TypeDescriptor
	Identity   identity.Identity
	Rewritten  *expr.Lambda
	Captures   *capture.Set

	// Diagnostics lists field-scoped conditions that did not stop the
	// compilation, one line each.
	Diagnostics []string
}

// Compiler compiles projections against one resolver and one registry.
type Compiler struct {
	res      typeres.Resolver
	registry *identity.Registry
	rewriter *rewrite.Rewriter
	analyzer *capture.Analyzer
	dialect  Dialect
}

// New creates a Compiler. The registry is shared across call sites so
// that structurally identical projections collapse onto one generated
// type.
func New(res typeres.Resolver, registry *identity.Registry, dialect Dialect) *Compiler {
	return &Compiler{
		res:      res,
		registry: registry,
		rewriter: rewrite.New(res),
		analyzer: capture.NewAnalyzer(res),
		dialect:  dialect,
	}
}

// Compile compiles one root projection over the named source element
// type. Compilation is pure and synchronous; independent projections may
// be compiled concurrently.
func (c *Compiler) Compile(proj expr.Node, sourceType string) (*CompiledProjection, error) {
	lam, ok := proj.(*expr.Lambda)
	if !ok {
		return nil, ErrNotProjection
	}
	obj, ok := lam.Body.(*expr.Object)
	if !ok {
		return nil, ErrNotProjection
	}

	self, ok := c.res.TypeByName(sourceType)
	if !ok {
		return nil, fmt.Errorf("unknown source type %q", sourceType)
	}
	scope := &typeres.Scope{Param: lam.Param, Self: self}

	b := &builder{
		compiler: c,
		captures: capture.NewSet(),
	}
	sch, body, err := b.schema(obj, scope, sourceType)
	if err != nil {
		return nil, err
	}
	sch.Param = lam.Param
	if sch.Empty() {
		return nil, ErrNothingToGenerate
	}

	id := identity.Compute(sch)
	name, err := c.registry.ResolveOrRegister(id, schema.GeneratedTypeName(sourceType, id.Hash))
	if err != nil {
		return nil, err
	}
	sch.GeneratedName = name

	return &CompiledProjection{
		Schema:      sch,
		SourceType:  self,
		Identity:    id,
		Rewritten:   &expr.Lambda{Param: lam.Param, Body: body},
		Captures:    b.captures,
		Diagnostics: b.diags,
	}, nil
}
