// Command magocore is a minimal demonstration driver wiring the core
// analyzer end to end: load a CodebaseMetadata fixture (built in, or from
// a YAML file given as the first argument), populate it, run the analyzer
// over a hand-built AST, and print collected issues. Mirrors the
// teacher's cmd/funxy/main.go shape, scaled down to this core's scope —
// there's no lexer/parser here, so the "program" analyzed is assembled
// directly from the internal/ast node constructors.
package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/mago-analyzer/mago/internal/analyzer"
	"github.com/mago-analyzer/mago/internal/ast"
	"github.com/mago-analyzer/mago/internal/codebase"
	"github.com/mago-analyzer/mago/internal/config"
	blockctx "github.com/mago-analyzer/mago/internal/context"
	"github.com/mago-analyzer/mago/internal/diagnostics"
	"github.com/mago-analyzer/mago/internal/refgraph"
	"github.com/mago-analyzer/mago/internal/types"
)

func useColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func demoMetadata() *codebase.Metadata {
	m := codebase.NewMetadata()
	m.AddFunctionLike(&codebase.FunctionLikeMetadata{
		ID:   "::greet",
		Name: "greet",
		Parameters: []codebase.Parameter{
			{Name: "name", Type: types.Str()},
			{Name: "punctuation", Type: types.Str(), HasDefault: true, Default: types.StringLiteral("!")},
		},
		ReturnType: types.Str(),
	})
	return m
}

func loadMetadata() (*codebase.Metadata, error) {
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			return nil, fmt.Errorf("reading fixture %s: %w", os.Args[1], err)
		}
		return codebase.LoadMetadataFixture(data)
	}
	return demoMetadata(), nil
}

func main() {
	metadata, err := loadMetadata()
	if err != nil {
		fmt.Fprintln(os.Stderr, "magocore:", err)
		os.Exit(1)
	}

	refs := refgraph.New()
	codebase.NewPopulator(metadata, refs).PopulateAll()

	collector := diagnostics.NewCollector(false)
	a := analyzer.New(metadata, refs, collector, config.Default(), "demo.php")

	ctx := blockctx.New()
	a.AnalyzeExpression(ctx, &ast.Call{
		FunctionName: "greet",
		Arguments:    []ast.Argument{},
	})

	issues := collector.Issues()
	if len(issues) == 0 {
		printLine(useColor(), "32", "no issues found")
		return
	}
	for _, issue := range issues {
		printLine(useColor(), "31", fmt.Sprintf("%s: %s: %s", issue.Severity, issue.Code, issue.Message))
	}
}

func printLine(color bool, ansi, line string) {
	if color {
		fmt.Printf("\x1b[%sm%s\x1b[0m\n", ansi, line)
		return
	}
	fmt.Println(line)
}
