package internal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the compiler yaml configuration, e.g.:
//
//	stack_limit: 999
//	root_class: java/lang/Object
//	verify: true
//	dump_tables: false
//	verbose: false
//	color: auto
type Config struct {
	// StackLimit is the .limit stack emitted for every method.
	StackLimit int `yaml:"stack_limit"`
	// RootClass is the super class of classes which don't extend anything.
	RootClass string `yaml:"root_class"`
	// Verify checks the generated code with the jasmin checker before writing it.
	Verify bool `yaml:"verify"`
	// DumpTables prints the symbol tables once they are built.
	DumpTables bool `yaml:"dump_tables"`
	Verbose    bool `yaml:"verbose"`
	// Color is one of auto, always or never and applies to diagnostics.
	Color string `yaml:"color"`
}

const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

func DefaultConfig() *Config {
	return &Config{
		StackLimit: DefaultStackLimit,
		RootClass:  DefaultRootClass,
		Verify:     true,
		Color:      ColorAuto,
	}
}

// LoadConfig reads the yaml file at path on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	config := DefaultConfig()
	err := yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return config, config.Validate()
}

func (config *Config) Validate() error {
	if config.StackLimit <= 0 {
		return fmt.Errorf("stack_limit must be positive, got %d", config.StackLimit)
	}
	if config.RootClass == "" {
		return fmt.Errorf("root_class cannot be empty")
	}
	switch config.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("color must be auto, always or never, got %q", config.Color)
	}
	return nil
}
