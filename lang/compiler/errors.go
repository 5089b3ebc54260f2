package compiler

import (
	"strconv"

	"github.com/ironplc/ironplc-go/lang/core"
	"github.com/ironplc/ironplc-go/lang/problems"
)

// newBranchTooFarError reports a jump whose resolved relative offset does
// not fit in a signed 16-bit operand (spec §4.3: "Relative offsets outside
// i16 range are a diagnostic (BranchTooFar)").
func newBranchTooFarError(patchOffset int) error {
	return core.NewDiagnostic(
		problems.BranchTooFar,
		core.Label{Message: problems.Format(problems.BranchTooFar)},
	).WithContext("patch_offset", strconv.Itoa(patchOffset))
}

// newVariableUndefinedError reports a reference to a variable with no
// assigned table index, grounded on compile.rs's CompileContext::var_index.
func newVariableUndefinedError(name core.Id) error {
	return core.NewDiagnostic(
		problems.SymbolicVarUndeclared,
		core.SpanLabel(name, "variable reference"),
	).WithContext("variable", name.String())
}

// newNotImplementedError marks a construct the compiler does not yet lower
// (e.g. SFC bodies, CASE statements), grounded on compile.rs's
// Diagnostic::todo/todo_with_span.
func newNotImplementedError(where string) error {
	return core.NewDiagnostic(
		problems.NotImplemented,
		core.Label{Message: problems.Format(problems.NotImplemented, where)},
	)
}
