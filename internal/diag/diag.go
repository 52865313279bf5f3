// Package diag renders compile failures as framed source snippets via
// github.com/fatih/color, with one error code per failure kind.
package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"njit/internal/frontend/token"
)

// Code identifies one of the five compile-failure kinds.
type Code string

const (
	CodeMalformedInput      Code = "J0001"
	CodeUnresolvedUse       Code = "J0002"
	CodeTypeMeetFailure     Code = "J0003"
	CodeCapacityExhausted   Code = "J0004"
	CodeStructuralInvariant Code = "J0005"
)

func (c Code) Description() string {
	switch c {
	case CodeMalformedInput:
		return "builder input violates an arity or terminator rule"
	case CodeUnresolvedUse:
		return "no reaching definition for this use on any control path"
	case CodeTypeMeetFailure:
		return "two definitions reaching a join have no common type"
	case CodeCapacityExhausted:
		return "a variable's def-id counter overflowed"
	case CodeStructuralInvariant:
		return "the structured tree violated an invariant the builder should prevent"
	default:
		return "unknown diagnostic"
	}
}

// Suggestion is a one-line fix hint, optionally anchored to a position.
type Suggestion struct {
	Message string
	Pos     *token.Position
}

// Diagnostic is a structured, user-facing rendering of one compile error.
type Diagnostic struct {
	Code        Code
	Message     string
	Pos         token.Position
	Length      int
	Notes       []string
	Suggestions []Suggestion
}

// Reporter formats Diagnostics against one source file's text.
type Reporter struct {
	filename string
	lines    []string
}

func NewReporter(filename, source string) *Reporter {
	return &Reporter{filename: filename, lines: strings.Split(source, "\n")}
}

func (r *Reporter) Format(d Diagnostic) string {
	var b strings.Builder
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	errColor := color.New(color.FgRed, color.Bold).SprintFunc()

	fmt.Fprintf(&b, "%s[%s]: %s\n", errColor("error"), d.Code, d.Message)

	width := lineNumberWidth(d.Pos.Line)
	indent := strings.Repeat(" ", width)
	fmt.Fprintf(&b, "%s %s %s:%s\n", indent, dim("-->"), r.filename, d.Pos)
	fmt.Fprintf(&b, "%s %s\n", indent, dim("│"))

	if d.Pos.Line >= 1 && d.Pos.Line <= len(r.lines) {
		line := r.lines[d.Pos.Line-1]
		fmt.Fprintf(&b, "%s %s %s\n", bold(pad(d.Pos.Line, width)), dim("│"), line)
		length := d.Length
		if length <= 0 {
			length = 1
		}
		marker := strings.Repeat(" ", max0(d.Pos.Column-1)) + errColor(strings.Repeat("^", length))
		fmt.Fprintf(&b, "%s %s %s\n", indent, dim("│"), marker)
	}

	for _, n := range d.Notes {
		fmt.Fprintf(&b, "%s %s %s %s\n", indent, dim("│"), color.New(color.FgBlue).Sprint("note:"), n)
	}
	for i, s := range d.Suggestions {
		label := "help: try"
		if i > 0 {
			label = "    "
		}
		fmt.Fprintf(&b, "%s %s %s: %s\n", indent, dim("│"), color.New(color.FgCyan).Sprint(label), s.Message)
	}
	fmt.Fprintln(&b)
	return b.String()
}

func lineNumberWidth(line int) int {
	w := len(fmt.Sprintf("%d", line))
	if w < 3 {
		w = 3
	}
	return w
}

func pad(n, width int) string { return fmt.Sprintf("%*d", width, n) }

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
