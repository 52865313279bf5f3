// Package token defines the source positions shared by the textual
// front end (internal/frontend/syntax) and the diagnostics layer
// (internal/diag).
package token

import "fmt"

// Position is a 1-based line/column location in one source file.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
