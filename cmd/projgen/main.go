package main

import (
	"fmt"
	"log"
	"os"

	"github.com/seitarof/projgen/internal/cli"
	"github.com/seitarof/projgen/internal/emit"
	"github.com/seitarof/projgen/internal/typeres"
)

var version = "dev"

func main() {
	cfg, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if cfg.ShowVersion {
		fmt.Println(version)
		return
	}

	runner := cli.NewRunner(func(res typeres.Resolver) emit.Emitter {
		f := emit.NewGoimportsFormatter()
		w := emit.NewFileWriter()
		return emit.New(res, f, w)
	})
	if err := runner.Run(cfg); err != nil {
		log.Fatal(err)
	}
}
