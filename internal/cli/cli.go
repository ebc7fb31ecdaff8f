package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// ParseArgs parses command line arguments into Config.
func ParseArgs(args []string) (*Config, error) {
	cfg := &Config{}

	fs := pflag.NewFlagSet("projgen", pflag.ContinueOnError)
	fs.StringVar(&cfg.CatalogPath, "catalog", "", "type catalog YAML file")
	fs.StringVar(&cfg.SrcPkg, "src-pkg", "", "Go package to derive the catalog from")
	fs.StringVar(&cfg.SrcType, "src-type", "", "root struct type in --src-pkg")
	fs.StringVarP(&cfg.ProjectionsPath, "projections", "p", "", "projections YAML file")
	fs.StringVarP(&cfg.Filename, "out", "o", "", "output file name")
	fs.StringVar(&cfg.Package, "pkg", "", "package name for generated code")
	fs.StringVar(&cfg.Dialect, "dialect", "guard", "rewrite dialect: guard or chain")
	fs.IntVar(&cfg.Workers, "workers", 4, "concurrent projection compilations")
	fs.BoolVar(&cfg.PrintRewritten, "print-rewritten", false, "log each projection's rewritten form")
	fs.BoolVarP(&cfg.ShowVersion, "version", "v", false, "show version")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.ShowVersion {
		return cfg, nil
	}

	if strings.TrimSpace(cfg.ProjectionsPath) == "" {
		return nil, fmt.Errorf("--projections is required")
	}
	if strings.TrimSpace(cfg.Filename) == "" {
		return nil, fmt.Errorf("--out is required")
	}
	if strings.TrimSpace(cfg.Package) == "" {
		return nil, fmt.Errorf("--pkg is required")
	}
	haveCatalog := strings.TrimSpace(cfg.CatalogPath) != ""
	havePkg := strings.TrimSpace(cfg.SrcPkg) != "" && strings.TrimSpace(cfg.SrcType) != ""
	if !haveCatalog && !havePkg {
		return nil, fmt.Errorf("either --catalog or --src-pkg with --src-type is required")
	}
	if cfg.Dialect != "guard" && cfg.Dialect != "chain" {
		return nil, fmt.Errorf("--dialect must be guard or chain, got %q", cfg.Dialect)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("--workers must be positive")
	}
	return cfg, nil
}
