package internal

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/xiaobogaga/javamm/assembler"
)

// Compiler runs the back end: symbol tables, semantic analysis and code generation. Any error
// in the first two stages stops the compilation before a single line is generated.
type Compiler struct {
	config *Config
	logger *log.Logger
	// Tables receives the symbol table dump when Config.DumpTables is set.
	Tables io.Writer
}

// NewCompiler creates a compiler logging its progress to logWriter when verbose is set.
func NewCompiler(config *Config, logWriter io.Writer) *Compiler {
	if config == nil {
		config = DefaultConfig()
	}
	if !config.Verbose || logWriter == nil {
		logWriter = io.Discard
	}
	return &Compiler{
		config: config,
		logger: log.New(logWriter, "compiler: ", 0),
		Tables: os.Stdout,
	}
}

// Compile returns the jasmin code of the class.
func (compiler *Compiler) Compile(ast *ClassAst) (string, error) {
	compiler.logger.Println("start building symbol table")
	store, err := BuildSymbolTables(ast)
	if err != nil {
		return "", err
	}
	if compiler.config.DumpTables {
		err = store.Dump(compiler.Tables)
		if err != nil {
			return "", err
		}
	}
	compiler.logger.Println("start semantic analysis")
	analyzer := NewAnalyzer(store, ast)
	err = analyzer.Analyse()
	if err != nil {
		return "", err
	}
	compiler.logger.Println("start generate codes")
	code := NewCodeGenerator(store, analyzer, ast, compiler.config).Generate()
	if compiler.config.Verify {
		compiler.logger.Println("start verifying generated codes")
		_, err = assembler.CreateAssembler().Parse(strings.NewReader(code))
		if err != nil {
			return "", makeError(OutputErrorKind, "", "generated code doesn't assemble: %v", err)
		}
	}
	return code, nil
}

// CompileFile compiles the ast stored at inputPath and writes the jasmin file to outputPath.
func (compiler *Compiler) CompileFile(inputPath string, outputPath string) error {
	compiler.logger.Println("start reading ast at path: " + inputPath)
	f, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer f.Close()
	root, err := DecodeNode(f)
	if err != nil {
		return err
	}
	ast, err := Lower(root)
	if err != nil {
		return err
	}
	code, err := compiler.Compile(ast)
	if err != nil {
		return err
	}
	compiler.logger.Println("save jasmin file: " + outputPath)
	return WriteOutput(outputPath, code)
}
