package irgen

import (
	"fmt"

	"irgen/internal/diag"
	"irgen/internal/source"
)

// Unimplemented reports a construct the generator does not support yet.
// It never changes unit state and is accepted in any state.
func (u *Unit) Unimplemented(loc source.Span, msg string) {
	u.report(diag.IRGenUnimplemented, loc, msg)
}

// Failure reports that generation of a construct failed.
func (u *Unit) Failure(loc source.Span, msg string) {
	u.report(diag.IRGenFailure, loc, msg)
}

// Failuref is Failure with formatting.
func (u *Unit) Failuref(loc source.Span, format string, args ...any) {
	u.report(diag.IRGenFailure, loc, fmt.Sprintf(format, args...))
}

func (u *Unit) report(code diag.Code, loc source.Span, msg string) {
	r := u.fe.Diagnostics()
	if r == nil {
		return
	}
	r.Report(code, diag.SevError, loc, msg, nil)
}
