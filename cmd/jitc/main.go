// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"njit/internal/diag"
	"njit/internal/repl"
	"njit/internal/session"
	"njit/internal/ssa/static"
)

// Exit codes: 0 success, 1 parse error, 2 resolution/type error,
// 3 lowering error, 4 I/O error.
const (
	exitSuccess         = 0
	exitParseError      = 1
	exitResolutionError = 2
	exitLoweringError   = 3
	exitIOError         = 4
)

func main() {
	var printIR bool
	var noOptimise bool

	root := &cobra.Command{
		Use:          "jitc",
		Short:        "SSA construction front end for the numeric-scripting JIT",
		SilenceUsage: true,
	}

	compile := &cobra.Command{
		Use:   "compile <input-path>",
		Short: "build, resolve and lower every function in input-path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(args[0], printIR, noOptimise)
		},
	}
	compile.Flags().BoolVar(&printIR, "print-ir", false, "pretty-print each function's lowered static IR")
	compile.Flags().BoolVar(&noOptimise, "no-optimise", false, "accepted for CLI-surface compatibility; the compiler runs no optimization passes regardless")

	root.AddCommand(compile)

	root.AddCommand(&cobra.Command{
		Use:   "repl",
		Short: "read function bodies from stdin, compile and print each one",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			repl.Start(os.Stdin)
		},
	})

	if err := root.Execute(); err != nil {
		color.Red("%s", err)
		os.Exit(exitResolutionError)
	}
}

func runCompile(path string, printIR, noOptimise bool) error {
	_ = noOptimise // the core performs no optimization passes either way

	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read %s: %s", path, err)
		os.Exit(exitIOError)
	}

	results := session.CompileSource(context.Background(), path, string(source))

	dumpDir := os.Getenv("IR_DUMP_DIR")
	worstExit := exitSuccess
	for _, r := range results {
		if r.Err == nil {
			color.Green("compiled %s", r.Name)
			if printIR {
				fmt.Print(static.Print(r.Func))
			}
			if dumpDir != "" {
				dumpFunction(dumpDir, r)
			}
			continue
		}

		code := exitCodeFor(r.Diag)
		if code > worstExit {
			worstExit = code
		}
		if r.Diag != nil {
			reporter := diag.NewReporter(path, string(source))
			color.Red("%s", reporter.Format(*r.Diag))
		} else {
			color.Red("%s: %s", r.Name, r.Err)
		}
	}

	if worstExit != exitSuccess {
		os.Exit(worstExit)
	}
	return nil
}

// exitCodeFor maps a diagnostic's taxonomy code onto one of the four
// failure exit codes. A nil Diag (a bare parse failure, which never
// reaches the diag layer) is a parse error. StructuralInvariant is
// folded into the lowering bucket: it is an abort condition rather than
// a recoverable error class of its own, and the core can only panic
// with it from inside the builder/resolver/lowering pass.
func exitCodeFor(d *diag.Diagnostic) int {
	if d == nil {
		return exitParseError
	}
	switch d.Code {
	case diag.CodeUnresolvedUse, diag.CodeTypeMeetFailure, diag.CodeMalformedInput, diag.CodeCapacityExhausted:
		return exitResolutionError
	case diag.CodeStructuralInvariant:
		return exitLoweringError
	default:
		return exitResolutionError
	}
}

func dumpFunction(dir string, r session.Result) {
	if r.Func == nil {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		color.Red("IR_DUMP_DIR: %s", err)
		return
	}
	path := fmt.Sprintf("%s/%s.ir", dir, r.Func.Name)
	if err := os.WriteFile(path, []byte(static.Print(r.Func)), 0o644); err != nil {
		color.Red("IR_DUMP_DIR: %s", err)
	}
}
