// Package repl is an interactive driver over the textual front end:
// read one function at a time in the notation of
// internal/frontend/syntax, build it, resolve it, lower it, and
// pretty-print its static.Function.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"njit/internal/session"
	"njit/internal/ssa/static"
)

const PROMPT = ">> "

// Start reads from in until EOF, a brace-balanced function body at a
// time (the textual notation spans multiple lines, so the REPL buffers
// until `{`/`}` balance to zero rather than splitting on every line the
// way a single-expression REPL would).
func Start(in io.Reader) {
	scanner := bufio.NewScanner(in)
	var buf strings.Builder
	depth := 0
	started := false

	for {
		fmt.Print(PROMPT)
		if !scanner.Scan() {
			if started {
				compileAndPrint(buf.String())
			}
			return
		}

		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteString("\n")
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if strings.TrimSpace(line) != "" {
			started = true
		}

		if started && depth <= 0 {
			compileAndPrint(buf.String())
			buf.Reset()
			depth = 0
			started = false
		}
	}
}

func compileAndPrint(src string) {
	if strings.TrimSpace(src) == "" {
		return
	}
	for _, r := range session.CompileSource(context.Background(), "<repl>", src) {
		if r.Err != nil {
			fmt.Printf("error in %s: %s\n", r.Name, r.Err)
			continue
		}
		fmt.Print(static.Print(r.Func))
	}
}
