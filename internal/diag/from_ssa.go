package diag

import (
	"errors"
	"fmt"

	"njit/internal/frontend/token"
	"njit/internal/ssa"
)

// FromSSAError classifies a core error by the taxonomy sentinel it
// wraps and renders it as a Diagnostic anchored at pos (the caller's
// best-known source position for the failing operation, since the core
// itself carries no positions).
func FromSSAError(err error, pos token.Position) Diagnostic {
	var unresolved *ssa.UnresolvedUseError
	var typeMeet *ssa.TypeMeetError
	var invariant ssa.StructuralInvariant

	switch {
	case errors.As(err, &unresolved):
		return Diagnostic{
			Code:    CodeUnresolvedUse,
			Message: fmt.Sprintf("use of %q has no reaching definition", unresolved.Variable),
			Pos:     pos,
			Notes:   []string{"every control path reaching this use left it undefined"},
		}
	case errors.As(err, &typeMeet):
		return Diagnostic{
			Code:    CodeTypeMeetFailure,
			Message: fmt.Sprintf("%q has incompatible types at a join: %s vs %s", typeMeet.Variable, typeMeet.Left, typeMeet.Right),
			Pos:     pos,
			Notes:   []string{typeMeet.Site},
		}
	case errors.As(err, &invariant):
		return Diagnostic{
			Code:    CodeStructuralInvariant,
			Message: invariant.Why,
			Pos:     pos,
			Notes:   []string{"in " + invariant.Where},
		}
	case errors.Is(err, ssa.ErrCapacityExhausted):
		return Diagnostic{Code: CodeCapacityExhausted, Message: err.Error(), Pos: pos}
	case errors.Is(err, ssa.ErrMalformedInput):
		return Diagnostic{Code: CodeMalformedInput, Message: err.Error(), Pos: pos}
	default:
		return Diagnostic{Code: CodeMalformedInput, Message: err.Error(), Pos: pos}
	}
}
