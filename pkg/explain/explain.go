// Package explain is the Error Explainer (spec §4.7): it has no state of
// its own — the independent per-relation push/pop testing it describes
// needs the Logic Engine's own backend and assertion stores, so that
// algorithm lives on logic.Engine.RetrieveErrorMessage /
// logic.Engine.RetrieveViolations. This package supplies the shared,
// deterministic formatting of "all individually-sufficient causes" into
// one message, grounded on solver.NotSatisfiable's join of
// AppliedConstraint strings (resolver/solver/solve.go).
package explain

import "strings"

// Join concatenates violated-relation messages, in relation-registration
// order, into the single string a ConstraintViolation carries.
func Join(messages []string) string {
	return strings.Join(messages, " ")
}
