// Package session runs one compile over many functions: one goroutine
// per function body, synchronized only through the type lattice (pure,
// needs no lock) and a shared external symbol table. The session
// compiles everything and collects every diagnostic; one function's
// failure never aborts the others.
package session

import (
	"context"

	"github.com/sasha-s/go-deadlock"
	"golang.org/x/sync/errgroup"

	"njit/internal/diag"
	"njit/internal/frontend/lower"
	"njit/internal/frontend/syntax"
	"njit/internal/frontend/token"
	"njit/internal/ssa"
	"njit/internal/ssa/static"
)

// SymbolTable is the one mutable structure a session's concurrently
// compiled functions share: the set of known call targets. Compile fills
// it with every function's name before any per-function compile starts;
// the per-function compile itself does not consult it. It is guarded by
// deadlock.RWMutex instead of sync.RWMutex so a lock-order mistake in the
// scheduler fails fast in tests instead of hanging.
type SymbolTable struct {
	mu      deadlock.RWMutex
	symbols map[string]struct{}
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]struct{})}
}

// Declare records name as a known call target.
func (t *SymbolTable) Declare(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.symbols[name] = struct{}{}
}

// Has reports whether name was previously declared.
func (t *SymbolTable) Has(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.symbols[name]
	return ok
}

// Result is one function's compiled output, or its failure rendered as
// a Diagnostic.
type Result struct {
	Name string
	Func *static.Function
	Err  error
	Diag *diag.Diagnostic
}

// Session compiles every function of one parsed program in parallel.
type Session struct {
	Symbols *SymbolTable
}

// New starts a session with a fresh symbol table.
func New() *Session {
	return &Session{Symbols: NewSymbolTable()}
}

// Compile builds, resolves and lowers every function in prog, one
// goroutine per function: parallel across functions, single-threaded
// within one. It returns one Result per
// function in source declaration order regardless of completion order;
// a single function's failure never aborts the others, matching how a
// real compiler session reports every error it can find in one pass.
func (s *Session) Compile(ctx context.Context, prog *syntax.Program) []Result {
	for _, fn := range prog.Functions {
		s.Symbols.Declare(fn.Name)
	}

	results := make([]Result, len(prog.Functions))
	g, gctx := errgroup.WithContext(ctx)
	for i, fn := range prog.Functions {
		i, fn := i, fn
		g.Go(func() error {
			// A compile may be aborted before a function begins, but
			// never mid-function - once started it runs to completion
			// or to a typed failure.
			if err := gctx.Err(); err != nil {
				results[i] = Result{Name: fn.Name, Err: err}
				return nil
			}
			results[i] = s.compileOne(fn, ssa.ProcessedID(i+1))
			return nil
		})
	}
	_ = g.Wait() // per-function failures are carried in results, never propagated
	return results
}

// compileOne drives a single function's build/resolve/lower, converting
// both a returned error and a panicked ssa.StructuralInvariant into a
// Result the caller can report without the session itself crashing.
func (s *Session) compileOne(fn *syntax.Function, id ssa.ProcessedID) (result Result) {
	result.Name = fn.Name

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		inv, ok := r.(ssa.StructuralInvariant)
		if !ok {
			panic(r)
		}
		result.Err = inv
		d := diag.FromSSAError(inv, token.Position{})
		result.Diag = &d
	}()

	sf, err := lower.LowerFunction(fn, id)
	if err != nil {
		result.Err = err
		d := diag.FromSSAError(err, token.Position{})
		result.Diag = &d
		return result
	}
	result.Func = sf
	return result
}

// CompileSource is the convenience entry point the CLI and repl use:
// parse then compile, surfacing a parse failure as a single-element
// Result list so callers never need to special-case it.
func CompileSource(ctx context.Context, filename, source string) []Result {
	prog, err := syntax.Parse(filename, source)
	if err != nil {
		return []Result{{Name: filename, Err: err}}
	}
	return New().Compile(ctx, prog)
}
