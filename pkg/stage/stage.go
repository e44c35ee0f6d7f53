// Package stage is the Stage Machine (spec §4.6): a rooted tree of Stages
// gating which Variables may be edited, with guard-driven skipping and
// pre-order completion/activation. Like pkg/layer, there is no pack
// analogue of a UI-facing stage tree, so this package is stdlib-only; see
// DESIGN.md.
package stage

// Stage is a node in the Stage Machine tree.
type Stage struct {
	title     string
	guard     func() bool
	varNames  []string
	substages []*Stage
	parent    *Stage
	machine   *Machine

	enabled  bool
	active   bool
	complete bool
}

// New constructs a leaf or branch Stage. guard may be nil (always enabled).
func New(title string, guard func() bool, varNames []string, substages ...*Stage) *Stage {
	s := &Stage{title: title, guard: guard, varNames: varNames, substages: substages}
	for _, c := range substages {
		c.parent = s
	}
	return s
}

func (s *Stage) Title() string        { return s.title }
func (s *Stage) Variables() []string  { return s.varNames }
func (s *Stage) Substages() []*Stage  { return s.substages }
func (s *Stage) IsLeaf() bool         { return len(s.substages) == 0 }
func (s *Stage) Enabled() bool        { return s.enabled }
func (s *Stage) Active() bool         { return s.active }
func (s *Stage) Complete() bool       { return s.complete }

// First reports whether s is the very first leaf Stage in pre-order,
// ignoring guards: the stage active at a freshly-initialized Machine.
func (s *Stage) First() bool {
	return s.machine != nil && s == s.machine.firstLeaf
}

// Reset clears s's own Variables, in reverse declaration order, and
// re-enters the Stage Machine in its initial state (spec §4.6).
func (s *Stage) Reset() error {
	if s.machine == nil {
		return nil
	}
	return s.machine.resetStage(s)
}
