// Command indentscript is the CLI shell over package transpiler: it
// transpiles an IndentScript source file to ECMAScript, optionally handing
// the result to the embedded evaluator, following the CLI surface the
// specification documents for completeness over the embeddable API.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flosch/indentscript/internal/ioutil"
	ilog "github.com/flosch/indentscript/internal/log"
	"github.com/flosch/indentscript/transpiler"
)

const version = "indentscript v0.1"

const usage = `usage:
  indentscript --transpile|-t <in> [out]   write target text to out (default <in-base>.js)
  indentscript --execute|-e <in>           transpile then run under the embedded evaluator
  indentscript --version|-v                print the version string
  indentscript --help|-h                   print this message
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	ilog.SetVerbose(cfg.Verbose)

	if len(args) == 0 {
		fmt.Print(usage)
		return 0
	}

	switch args[0] {
	case "--help", "-h":
		fmt.Print(usage)
		return 0
	case "--version", "-v":
		fmt.Println(version)
		return 0
	case "--transpile", "-t":
		return runTranspile(args[1:], cfg)
	case "--execute", "-e":
		return runExecute(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "indentscript: unknown command %q\n", args[0])
		return 1
	}
}

func runTranspile(args []string, cfg config) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "indentscript: --transpile requires an input file")
		return 1
	}
	in := args[0]
	out := ioutil.DefaultTargetPath(in)
	if len(args) > 1 {
		out = args[1]
	} else if cfg.OutDir != "" {
		out = filepath.Join(cfg.OutDir, filepath.Base(out))
	}

	source, err := ioutil.ReadSource(in)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	target, err := transpiler.Transpile(source)
	if err != nil {
		reportFailure(err)
		return 1
	}

	if err := ioutil.WriteTarget(out, target); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runExecute(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "indentscript: --execute requires an input file")
		return 1
	}
	source, err := ioutil.ReadSource(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	out, err := transpiler.Execute(context.Background(), source)
	if err != nil {
		reportFailure(err)
		return 1
	}
	fmt.Print(out)
	return 0
}

// reportFailure prints err to stderr, and for a *transpiler.Failure also
// prints the offending source line beneath it.
func reportFailure(err error) {
	fmt.Fprintln(os.Stderr, err)
	if f, ok := err.(*transpiler.Failure); ok {
		if line, ok := f.RawLine(); ok {
			fmt.Fprintf(os.Stderr, "  %s\n", line)
		}
	}
}
