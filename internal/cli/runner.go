package cli

import (
	"errors"
	"fmt"
	"log"
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/seitarof/projgen/internal/capture"
	"github.com/seitarof/projgen/internal/compiler"
	"github.com/seitarof/projgen/internal/emit"
	"github.com/seitarof/projgen/internal/expr"
	"github.com/seitarof/projgen/internal/identity"
	"github.com/seitarof/projgen/internal/typeres"
)

// ProjectionSpec is one entry of the projections file.
type ProjectionSpec struct {
	Name     string   `yaml:"name"`
	Source   string   `yaml:"source"`
	Expr     string   `yaml:"expr"`
	Captures []string `yaml:"captures"`
}

type projectionsFile struct {
	Projections []ProjectionSpec `yaml:"projections"`
}

// Runner orchestrates catalog loading, projection compilation and
// emission for one run.
type Runner interface {
	Run(cfg *Config) error
}

// EmitterFactory builds an emitter once the run's resolver is known.
type EmitterFactory func(res typeres.Resolver) emit.Emitter

type runnerImpl struct {
	emitterFor EmitterFactory
}

// NewRunner creates a default runner implementation.
func NewRunner(emitterFor EmitterFactory) Runner {
	return &runnerImpl{emitterFor: emitterFor}
}

// Run executes a single generation cycle. Projections compile
// concurrently and share one identity registry, so structurally
// identical projections from different entries collapse onto one
// generated type.
func (r *runnerImpl) Run(cfg *Config) error {
	catalog, err := loadRunCatalog(cfg)
	if err != nil {
		return err
	}
	res := typeres.NewCatalogResolver(catalog)

	specs, err := loadProjections(cfg.ProjectionsPath)
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		return fmt.Errorf("no projections in %q", cfg.ProjectionsPath)
	}

	dialect := compiler.DialectGuard
	if cfg.Dialect == "chain" {
		dialect = compiler.DialectChain
	}
	registry := identity.NewRegistry()
	comp := compiler.New(res, registry, dialect)

	compiled := make([]*compiler.CompiledProjection, len(specs))
	var g errgroup.Group
	g.SetLimit(cfg.Workers)
	for i, spec := range specs {
		g.Go(func() error {
			out, err := compileOne(comp, spec)
			if err != nil {
				return err
			}
			compiled[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	items := make([]emit.Projection, 0, len(specs))
	for i, spec := range specs {
		if compiled[i] == nil {
			continue
		}
		reportDiagnostics(spec, compiled[i])
		if cfg.PrintRewritten {
			log.Printf("projgen: %s rewritten: %s", spec.Name, expr.Sprint(compiled[i].Rewritten))
		}
		items = append(items, emit.Projection{Name: spec.Name, Compiled: compiled[i]})
	}
	if len(items) == 0 {
		return fmt.Errorf("no projections compiled, nothing to generate")
	}

	return r.emitterFor(res).Emit(cfg, items)
}

// compileOne compiles a single projection; outcomes that only affect one
// call site are logged and skipped, not fatal.
func compileOne(comp *compiler.Compiler, spec ProjectionSpec) (*compiler.CompiledProjection, error) {
	if spec.Name == "" || spec.Source == "" || spec.Expr == "" {
		return nil, fmt.Errorf("projection entries need name, source and expr (got name=%q)", spec.Name)
	}
	node, err := expr.Parse(spec.Expr)
	if err != nil {
		return nil, fmt.Errorf("projection %q: %w", spec.Name, err)
	}
	out, err := comp.Compile(node, spec.Source)
	switch {
	case errors.Is(err, compiler.ErrNothingToGenerate), errors.Is(err, compiler.ErrNotProjection):
		log.Printf("projgen: warning: projection %q skipped: %v", spec.Name, err)
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("projection %q: %w", spec.Name, err)
	}
	return out, nil
}

func reportDiagnostics(spec ProjectionSpec, out *compiler.CompiledProjection) {
	for _, d := range out.Diagnostics {
		log.Printf("projgen: warning: projection %q: %s", spec.Name, d)
	}
	if spec.Captures == nil {
		return
	}
	for _, diag := range capture.Diff(spec.Captures, out.Captures) {
		log.Printf("projgen: warning: projection %q: %s %q", spec.Name, diag.Kind, diag.Name)
	}
}

func loadRunCatalog(cfg *Config) (*typeres.Catalog, error) {
	if cfg.CatalogPath != "" {
		return typeres.LoadCatalog(cfg.CatalogPath)
	}
	return typeres.CatalogFromPackage(cfg.SrcPkg, cfg.SrcType)
}

func loadProjections(path string) ([]ProjectionSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read projections: %w", err)
	}
	var f projectionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse projections %q: %w", path, err)
	}
	return f.Projections, nil
}
