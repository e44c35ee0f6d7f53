package stage

import "github.com/sirupsen/logrus"

// VariableAccess is the narrow view of the Variable Registry the Stage
// Machine needs: whether a Variable is always_set, whether it currently
// holds a value, and how to reset it.
type VariableAccess interface {
	AlwaysSet(name string) bool
	HasValue(name string) bool
	Reset(name string) error
}

// Machine drives one Stage tree.
type Machine struct {
	root      *Stage
	vars      VariableAccess
	log       logrus.FieldLogger
	current   *Stage
	firstLeaf *Stage
}

// NewMachine constructs a Machine over root and runs the initial
// activation pass (spec §4.6: "the root's first child is active at
// startup").
func NewMachine(root *Stage, vars VariableAccess, log logrus.FieldLogger) *Machine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	m := &Machine{root: root, vars: vars, log: log}
	attachMachine(root, m)
	m.firstLeaf = firstLeafOf(root)
	m.Reevaluate()
	return m
}

func attachMachine(s *Stage, m *Machine) {
	s.machine = m
	for _, c := range s.substages {
		attachMachine(c, m)
	}
}

func firstLeafOf(s *Stage) *Stage {
	if s.IsLeaf() {
		return s
	}
	if len(s.substages) == 0 {
		return s
	}
	return firstLeafOf(s.substages[0])
}

// Active returns the currently active leaf Stage, or nil if the entire
// tree is complete.
func (m *Machine) Active() *Stage { return m.current }

// Reevaluate re-derives enabled/active/complete for the whole tree from
// scratch: called whenever any Variable referenced by a guard changes
// (spec §4.6: "a Stage's guard is re-evaluated whenever any of its
// antecedent Variables change").
func (m *Machine) Reevaluate() {
	_, active := m.recompute(m.root)
	m.current = active
}

func (m *Machine) recompute(s *Stage) (complete bool, active *Stage) {
	if s.guard != nil && !s.guard() {
		s.enabled = false
		s.active = false
		m.resetSubtreeVars(s)
		s.complete = true
		return true, nil
	}
	s.enabled = true

	if s.IsLeaf() {
		s.complete = m.leafComplete(s)
		s.active = !s.complete
		if s.complete {
			return true, nil
		}
		return false, s
	}

	allComplete := true
	var activeLeaf *Stage
	for _, child := range s.substages {
		childComplete, childActive := m.recompute(child)
		if childActive != nil && activeLeaf == nil {
			activeLeaf = childActive
		}
		if !childComplete {
			allComplete = false
		}
	}
	s.active = false
	if activeLeaf != nil {
		s.complete = false
		return false, activeLeaf
	}
	s.complete = allComplete
	return allComplete, nil
}

func (m *Machine) leafComplete(s *Stage) bool {
	for _, name := range s.varNames {
		if m.vars.AlwaysSet(name) && !m.vars.HasValue(name) {
			return false
		}
	}
	return true
}

func (m *Machine) resetSubtreeVars(s *Stage) {
	for i := len(s.varNames) - 1; i >= 0; i-- {
		name := s.varNames[i]
		if m.vars.HasValue(name) {
			_ = m.vars.Reset(name)
		}
	}
	for _, c := range s.substages {
		m.resetSubtreeVars(c)
	}
}

func (m *Machine) resetStage(s *Stage) error {
	for i := len(s.varNames) - 1; i >= 0; i-- {
		name := s.varNames[i]
		if m.vars.HasValue(name) {
			if err := m.vars.Reset(name); err != nil {
				return err
			}
		}
	}
	m.Reevaluate()
	return nil
}
