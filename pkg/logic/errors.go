package logic

import "fmt"

// DuplicateRelation is returned by RegisterInterdependencies when the same
// error message is used to key two distinct relational assertions. The
// bundle's error message is the only author-facing handle on a relation
// (spec §3's "keyed by a human-readable error message"), so a repeated
// message is treated as the duplicate-registration case §4.4 describes.
type DuplicateRelation struct {
	Message string
}

func (e *DuplicateRelation) Error() string {
	return fmt.Sprintf("logic: relation %q registered more than once", e.Message)
}

// InconsistentRelations is returned when the full relation bundle is
// jointly unsatisfiable with no assignments at all, which catches authoring
// errors at startup rather than at the first unlucky assignment.
type InconsistentRelations struct {
	Messages []string
}

func (e *InconsistentRelations) Error() string {
	return fmt.Sprintf("logic: relation bundle is unsatisfiable on its own (%d relations involved)", len(e.Messages))
}
