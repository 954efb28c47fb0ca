package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/xiaobogaga/javamm/compiler/internal"
)

// a simple program accepts the ast of a class, encoded as yaml or json, and compiles it into a jasmin file.

var (
	inputPath  = flag.String("i", "./input.yaml", "the input ast file path")
	outputPath = flag.String("o", "", "the output jasmin file path, defaults to the input path with a .j extension")
	configPath = flag.String("config", "", "the yaml config file path")
	verbose    = flag.Bool("v", false, "whether print the compilation stages")
	verify     = flag.Bool("verify", true, "whether check the generated jasmin code before saving it")
	dumpTables = flag.Bool("dump_tables", false, "whether print the symbol tables")
	color      = flag.String("color", internal.ColorAuto, "whether color errors: auto, always or never")
)

func main() {
	flag.Parse()
	config, err := loadConfig()
	if err != nil {
		printError(err, internal.ColorAuto)
		os.Exit(2)
	}
	out := *outputPath
	if out == "" {
		out = strings.TrimSuffix(*inputPath, filepath.Ext(*inputPath)) + ".j"
	}
	compiler := internal.NewCompiler(config, os.Stderr)
	err = compiler.CompileFile(*inputPath, out)
	if err != nil {
		printError(err, config.Color)
		os.Exit(1)
	}
}

// loadConfig reads the config file, then applies the flags set on the command line.
func loadConfig() (*internal.Config, error) {
	config := internal.DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = internal.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":
			config.Verbose = *verbose
		case "verify":
			config.Verify = *verify
		case "dump_tables":
			config.DumpTables = *dumpTables
		case "color":
			config.Color = *color
		}
	})
	return config, config.Validate()
}

func printError(err error, color string) {
	prefix := "error:"
	useColor := color == internal.ColorAlways ||
		(color == internal.ColorAuto && (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())))
	if useColor {
		prefix = "\x1b[1;31m" + prefix + "\x1b[0m"
	}
	fmt.Fprintf(os.Stderr, "%s %v\n", prefix, err)
}
