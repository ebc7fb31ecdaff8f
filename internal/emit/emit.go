// Package emit renders compiled projections into Go source: one struct
// declaration per distinct schema and one mapping function per
// projection, plus unexported mappers for nested schemas.
package emit

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"strings"
	"text/template"
	"unicode"

	"golang.org/x/tools/imports"

	"github.com/seitarof/projgen/internal/compiler"
	"github.com/seitarof/projgen/internal/schema"
	"github.com/seitarof/projgen/internal/typeres"
)

//go:embed templates/*.go.tmpl
var templateFS embed.FS

// Emitter generates mapper code from compiled projections.
type Emitter interface {
	Emit(cfg Config, items []Projection) error
}

// Config is the minimum config contract required by the emitter.
type Config interface {
	OutputFilename() string
	PackageName() string
}

// Projection pairs a compiled projection with its caller-given name.
type Projection struct {
	Name     string
	Compiled *compiler.CompiledProjection
}

// Formatter formats generated Go code and organizes imports.
type Formatter interface {
	Format(filename string, src []byte) ([]byte, error)
}

// FileWriter writes generated code to disk.
type FileWriter interface {
	Write(filename string, data []byte) error
}

type emitterImpl struct {
	res       typeres.Resolver
	formatter Formatter
	writer    FileWriter
	rules     []Rule
	tmpl      *template.Template
}

type goimportsFormatter struct{}

type fileWriter struct{}

type templateData struct {
	Package string
	Types   []typeDecl
	Mappers []mapperData
}

type typeDecl struct {
	Name   string
	Fields []fieldDecl
}

type fieldDecl struct {
	Name string
	Type string
}

type mapperData struct {
	FuncName   string
	Params     string
	ReturnType string
	Plans      []FieldPlan
}

// New creates an emitter. The resolver supplies Go renderings for
// catalog types.
func New(res typeres.Resolver, f Formatter, w FileWriter) Emitter {
	tmpl := template.Must(template.New("").Funcs(template.FuncMap{
		"renderPlan": renderPlanText,
	}).ParseFS(templateFS, "templates/*.go.tmpl"))
	return &emitterImpl{res: res, formatter: f, writer: w, rules: DefaultRules(), tmpl: tmpl}
}

// NewGoimportsFormatter creates a formatter backed by goimports.
func NewGoimportsFormatter() Formatter {
	return &goimportsFormatter{}
}

// NewFileWriter creates a plain file writer.
func NewFileWriter() FileWriter {
	return &fileWriter{}
}

func (e *emitterImpl) Emit(cfg Config, items []Projection) error {
	if len(items) == 0 {
		return fmt.Errorf("no compiled projections")
	}

	data := e.buildTemplateData(cfg, items)
	var buf bytes.Buffer
	if err := e.tmpl.ExecuteTemplate(&buf, "projection.go.tmpl", data); err != nil {
		return fmt.Errorf("template: %w", err)
	}

	formatted, err := e.formatter.Format(cfg.OutputFilename(), buf.Bytes())
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}
	if err := e.writer.Write(cfg.OutputFilename(), formatted); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (f *goimportsFormatter) Format(filename string, src []byte) ([]byte, error) {
	return imports.Process(filename, src, nil)
}

func (w *fileWriter) Write(filename string, data []byte) error {
	return os.WriteFile(filename, data, 0o644)
}

func (e *emitterImpl) buildTemplateData(cfg Config, items []Projection) templateData {
	data := templateData{Package: cfg.PackageName()}
	seen := map[string]bool{}
	nestedMappers := map[string]string{} // generated type name -> func name
	var nestedOrder []*schema.Schema

	var visit func(s *schema.Schema, root bool)
	visit = func(s *schema.Schema, root bool) {
		for _, f := range s.Fields {
			if f.Nested != nil {
				visit(f.Nested, false)
			}
		}
		if seen[s.GeneratedName] {
			return
		}
		seen[s.GeneratedName] = true
		data.Types = append(data.Types, declFor(s))
		if !root {
			nestedMappers[s.GeneratedName] = "map" + s.GeneratedName
			nestedOrder = append(nestedOrder, s)
		}
	}
	for _, item := range items {
		visit(item.Compiled.Schema, true)
	}

	for _, item := range items {
		data.Mappers = append(data.Mappers, e.rootMapper(item, nestedMappers))
	}
	for _, s := range nestedOrder {
		data.Mappers = append(data.Mappers, e.nestedMapper(s, nestedMappers))
	}
	return data
}

func (e *emitterImpl) rootMapper(item Projection, mappers map[string]string) mapperData {
	c := item.Compiled
	sch := c.Schema

	params := []string{sch.Param + " " + goBareType(c.SourceType)}
	allowed := map[string]bool{sch.Param: true}
	for _, cap := range c.Captures.Entries() {
		params = append(params, cap.DisplayName+" "+goCaptureType(cap.Type))
		allowed[cap.DisplayName] = true
	}

	ctx := PlanContext{SrcVar: sch.Param, DstVar: "dst", Mappers: mappers, Allowed: allowed}
	return mapperData{
		FuncName:   "Map" + exportedToken(item.Name),
		Params:     strings.Join(params, ", "),
		ReturnType: sch.GeneratedName,
		Plans:      planFields(ctx, sch, e.rules),
	}
}

func (e *emitterImpl) nestedMapper(sch *schema.Schema, mappers map[string]string) mapperData {
	srcType := sch.SourceTypeName
	if d, ok := e.res.TypeByName(sch.SourceTypeName); ok {
		srcType = goBareType(d)
	}
	ctx := PlanContext{
		SrcVar:  sch.Param,
		DstVar:  "dst",
		Mappers: mappers,
		Allowed: map[string]bool{sch.Param: true},
	}
	return mapperData{
		FuncName:   mappers[sch.GeneratedName],
		Params:     sch.Param + " " + srcType,
		ReturnType: sch.GeneratedName,
		Plans:      planFields(ctx, sch, e.rules),
	}
}

func declFor(s *schema.Schema) typeDecl {
	decl := typeDecl{Name: s.GeneratedName}
	for _, f := range s.Fields {
		decl.Fields = append(decl.Fields, fieldDecl{Name: f.Name, Type: goFieldType(f)})
	}
	return decl
}

// goFieldType renders the Go type for one schema field: collections as
// slices, optional fields behind pointers.
func goFieldType(f schema.ProjectionField) string {
	d := f.DeclaredType
	base := goBareType(d)
	switch {
	case d.Kind == typeres.KindCollection:
		return base
	case d.Kind == typeres.KindReference:
		if d.Nullable || f.IsOptional {
			return "*" + base
		}
		return base
	case f.IsOptional:
		return "*" + base
	default:
		return base
	}
}

func goBareType(d typeres.TypeDescriptor) string {
	if d.Kind == typeres.KindCollection && d.Elem != nil {
		return "[]" + goBareType(*d.Elem)
	}
	if d.Kind == typeres.KindUnknown {
		return "any"
	}
	if d.GoType != "" {
		return d.GoType
	}
	return d.FullName
}

func goCaptureType(d typeres.TypeDescriptor) string {
	base := goBareType(d)
	if d.Nullable && (d.IsValueType() || d.Kind == typeres.KindReference) {
		return "*" + base
	}
	return base
}

// renderPlanText indents plan statements for the template, emitting the
// inline marker comment for skipped fields.
func renderPlanText(plan FieldPlan) string {
	if plan.Strategy == StrategySkip {
		return renderSkipComment(plan)
	}

	snippet := strings.TrimSpace(plan.Statements)
	if snippet == "" {
		return ""
	}

	var b strings.Builder
	remaining := snippet
	for {
		line, rest, found := strings.Cut(remaining, "\n")
		trimmed := strings.TrimRight(line, " ")
		if strings.TrimSpace(trimmed) != "" {
			b.WriteString("\t")
			b.WriteString(trimmed)
			b.WriteString("\n")
		}
		if !found {
			break
		}
		remaining = rest
	}
	return b.String()
}

func renderSkipComment(plan FieldPlan) string {
	reason := plan.Field.Diagnostic
	if reason == "" {
		reason = "couldn't auto-generate"
	}
	return "\t// " + plan.Field.Name + ": //TODO: " + reason + "\n"
}

// exportedToken upper-cases a projection name into an exported Go token.
func exportedToken(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(parts) == 0 {
		return "Projection"
	}

	var b strings.Builder
	for _, part := range parts {
		runes := []rune(part)
		b.WriteRune(unicode.ToUpper(runes[0]))
		if len(runes) > 1 {
			b.WriteString(string(runes[1:]))
		}
	}
	return b.String()
}
