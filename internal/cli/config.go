package cli

// Config stores CLI options for a single generation run.
type Config struct {
	CatalogPath     string
	SrcPkg          string
	SrcType         string
	ProjectionsPath string
	Filename        string
	Package         string
	Dialect         string
	Workers         int
	PrintRewritten  bool
	ShowVersion     bool
}

// OutputFilename returns the destination file path for the emit layer.
func (c *Config) OutputFilename() string {
	return c.Filename
}

// PackageName returns the package the generated file declares.
func (c *Config) PackageName() string {
	return c.Package
}
