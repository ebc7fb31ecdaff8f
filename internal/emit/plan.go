package emit

import (
	"strings"

	"github.com/seitarof/projgen/internal/expr"
	"github.com/seitarof/projgen/internal/schema"
	"github.com/seitarof/projgen/internal/typeres"
)

// Strategy identifies how one field's mapping is rendered.
type Strategy int

const (
	StrategyDirectAssign Strategy = iota
	StrategyOptionalGuard
	StrategyNestedSlice
	StrategySkip
)

// FieldPlan holds the rendered Go statements for one field.
type FieldPlan struct {
	Field      schema.ProjectionField
	Strategy   Strategy
	Statements string
}

// PlanContext carries per-mapper rendering state.
type PlanContext struct {
	SrcVar  string
	DstVar  string
	Mappers map[string]string // generated type name -> mapper func name
	// Allowed lists identifiers a field expression may reference as
	// roots: the mapper parameter plus any capture parameters.
	Allowed map[string]bool
}

// Rule tries to render one field mapping.
type Rule interface {
	Name() string
	Try(ctx PlanContext, f schema.ProjectionField) (FieldPlan, bool)
}

// DefaultRules returns built-in rules in priority order.
func DefaultRules() []Rule {
	return []Rule{
		&NestedSliceRule{},
		&OptionalGuardRule{},
		&DirectAssignRule{},
	}
}

// planFields runs the rule chain over every schema field, falling back
// to a skip plan carrying an inline marker comment.
func planFields(ctx PlanContext, sch *schema.Schema, rules []Rule) []FieldPlan {
	plans := make([]FieldPlan, 0, len(sch.Fields))
	for _, f := range sch.Fields {
		plans = append(plans, planOne(ctx, f, rules))
	}
	return plans
}

func planOne(ctx PlanContext, f schema.ProjectionField, rules []Rule) FieldPlan {
	if f.Diagnostic == "" {
		for _, r := range rules {
			if plan, ok := r.Try(ctx, f); ok {
				return plan
			}
		}
	}
	return FieldPlan{Field: f, Strategy: StrategySkip}
}

// NestedSliceRule renders a nested collection projection as a loop over
// the base collection calling the nested mapper per element. Trailing
// operations after the map call are not expressible in a plain loop, so
// their presence fails the rule.
type NestedSliceRule struct{}

func (r *NestedSliceRule) Name() string { return "nested-slice" }

func (r *NestedSliceRule) Try(ctx PlanContext, f schema.ProjectionField) (FieldPlan, bool) {
	if f.Nested == nil {
		return FieldPlan{}, false
	}
	call, ok := f.Source.(*expr.Call)
	if !ok {
		return FieldPlan{}, false
	}
	mem, ok := call.Fn.(*expr.Member)
	if !ok || len(call.Args) != 1 {
		return FieldPlan{}, false
	}
	if _, isLambda := call.Args[0].(*expr.Lambda); !isLambda {
		return FieldPlan{}, false // trailing ops wrap the map call
	}
	base, ok := renderPath(mem.Recv, ctx)
	if !ok {
		return FieldPlan{}, false
	}
	mapper, ok := ctx.Mappers[f.Nested.GeneratedName]
	if !ok {
		return FieldPlan{}, false
	}

	dst := ctx.DstVar + "." + f.Name
	elem := f.Nested.Param
	var b strings.Builder
	b.WriteString(dst + " = make([]" + f.Nested.GeneratedName + ", 0, len(" + base + "))\n")
	b.WriteString("for _, " + elem + " := range " + base + " {\n")
	b.WriteString(dst + " = append(" + dst + ", " + mapper + "(" + elem + "))\n")
	b.WriteString("}")
	return FieldPlan{Field: f, Strategy: StrategyNestedSlice, Statements: b.String()}, true
}

// OptionalGuardRule renders a guard-form conditional as a nil check. The
// zero value the guard falls back to is what `var dst T` already holds,
// so no else branch is needed.
type OptionalGuardRule struct{}

func (r *OptionalGuardRule) Name() string { return "optional-guard" }

func (r *OptionalGuardRule) Try(ctx PlanContext, f schema.ProjectionField) (FieldPlan, bool) {
	cond, ok := f.Source.(*expr.Conditional)
	if !ok {
		return FieldPlan{}, false
	}
	checks, ok := renderChecks(cond.Cond, ctx)
	if !ok {
		return FieldPlan{}, false
	}
	value := cond.Then
	if cast, isCast := value.(*expr.Cast); isCast {
		value = cast.Value
	}
	path, ok := renderPath(value, ctx)
	if !ok {
		return FieldPlan{}, false
	}

	dst := ctx.DstVar + "." + f.Name
	var b strings.Builder
	b.WriteString("if " + checks + " {\n")
	if needsAddress(f) {
		b.WriteString("v := " + path + "\n")
		b.WriteString(dst + " = &v\n")
	} else {
		b.WriteString(dst + " = " + path + "\n")
	}
	b.WriteString("}")
	return FieldPlan{Field: f, Strategy: StrategyOptionalGuard, Statements: b.String()}, true
}

// DirectAssignRule renders a plain path, identifier or literal.
type DirectAssignRule struct{}

func (r *DirectAssignRule) Name() string { return "direct-assign" }

func (r *DirectAssignRule) Try(ctx PlanContext, f schema.ProjectionField) (FieldPlan, bool) {
	path, ok := renderPath(f.Source, ctx)
	if !ok {
		return FieldPlan{}, false
	}
	dst := ctx.DstVar + "." + f.Name
	if needsAddress(f) {
		if _, isLit := f.Source.(*expr.Lit); isLit {
			stmts := "v := " + path + "\n" + dst + " = &v"
			return FieldPlan{Field: f, Strategy: StrategyDirectAssign, Statements: stmts}, true
		}
	}
	return FieldPlan{Field: f, Strategy: StrategyDirectAssign, Statements: dst + " = " + path}, true
}

// needsAddress reports whether an optional field stores a value type (or
// string) behind a pointer, requiring an address-of through a temp.
func needsAddress(f schema.ProjectionField) bool {
	return f.IsOptional && (f.DeclaredType.IsValueType() || f.DeclaredType.Kind == typeres.KindString)
}

// renderChecks renders a conjunction of != null checks as Go nil checks.
func renderChecks(cond expr.Node, ctx PlanContext) (string, bool) {
	switch v := cond.(type) {
	case *expr.Binary:
		switch v.Op {
		case "&&":
			left, ok := renderChecks(v.Left, ctx)
			if !ok {
				return "", false
			}
			right, ok := renderChecks(v.Right, ctx)
			if !ok {
				return "", false
			}
			return left + " && " + right, true
		case "!=":
			target := v.Left
			if expr.IsNull(target) {
				target = v.Right
			} else if !expr.IsNull(v.Right) {
				return "", false
			}
			path, ok := renderPath(target, ctx)
			if !ok {
				return "", false
			}
			return path + " != nil", true
		}
	}
	return "", false
}

// renderPath renders identifiers, plain member chains and literals as Go
// expressions. Optional links, calls and anything non-path fail.
func renderPath(n expr.Node, ctx PlanContext) (string, bool) {
	switch v := n.(type) {
	case *expr.Ident:
		if !ctx.Allowed[v.Name] {
			return "", false
		}
		return v.Name, true
	case *expr.Member:
		root, segs, ok := expr.SplitChain(v)
		if !ok || !ctx.Allowed[root.Name] {
			return "", false
		}
		var b strings.Builder
		b.WriteString(root.Name)
		for _, s := range segs {
			if s.Optional {
				return "", false
			}
			b.WriteString(".")
			b.WriteString(s.Name)
		}
		return b.String(), true
	case *expr.Lit:
		return renderGoLiteral(v)
	case *expr.Cast:
		return renderPath(v.Value, ctx)
	}
	return "", false
}

func renderGoLiteral(l *expr.Lit) (string, bool) {
	switch l.Kind {
	case expr.LitNull:
		return "nil", true
	case expr.LitBool, expr.LitInt:
		return l.Value, true
	case expr.LitString:
		return "\"" + l.Value + "\"", true
	case expr.LitChar:
		if l.Value == `\0` {
			return "'\\x00'", true
		}
		return "'" + l.Value + "'", true
	}
	return "", false
}
