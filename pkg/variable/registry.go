// Package variable is the Variable Registry (spec §4.3): it owns every
// Variable's lifecycle (definition, locking, options, assignment, reset),
// and is the one caller that drives the Logic Engine and Layer Graph on
// every state change. Grounded on OLM's BundleVariable/GenericVariable
// (variable_types.go) for the Variable shape, and on SatResolver as the
// single owner wiring cache → solver for the registration/assign flow.
package variable

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/CROCODILE-CESM/visualCaseGen/pkg/explain"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/expr"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/layer"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/logic"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/observable"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/sink"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/smt"
)

// Alert carries a rejected-assignment explanation up to the host, mirroring
// the source's alert callback (spec §4.8).
type Alert struct {
	Variable string
	Message  string
}

// Registry is the Variable Registry.
type Registry struct {
	backend *smt.Solver
	atoms   *expr.Atoms
	logic   *logic.Engine
	layers  *layer.Graph
	log     logrus.FieldLogger

	vars   map[string]*Variable
	order  []string
	locked bool

	optionChildren map[string][]string

	reentrant bool
	alert     observable.Observable[Alert]
}

// OnAlert subscribes listener to rejected-assignment explanations surfaced
// from frontend_change handling (spec §4.8).
func (r *Registry) OnAlert(listener func(Alert)) {
	r.alert.Subscribe(listener)
}

// New constructs an empty, unlocked Registry.
func New(log logrus.FieldLogger) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Registry{
		log:            log,
		vars:           make(map[string]*Variable),
		optionChildren: make(map[string][]string),
	}
	r.backend = smt.New(log)
	r.atoms = expr.NewAtoms(r.backend)
	r.logic = logic.New(r.backend, r.atoms, r.kindOf, log)
	r.layers = layer.New(layer.Edges{
		Peers:          func(name string) []string { return r.vars[name].Peers() },
		Children:       func(name string) []string { return r.vars[name].Children() },
		OptionChildren: func(name string) []string { return r.optionChildren[name] },
	})
	return r
}

func (r *Registry) kindOf(name string) (expr.Kind, bool) {
	v, ok := r.vars[name]
	if !ok {
		return 0, false
	}
	return v.kind, true
}

// Define declares a new Variable. options may be nil for an infinite
// domain.
func (r *Registry) Define(name string, kind expr.Kind, options []expr.Value, flags Flags) (*Variable, error) {
	if r.locked {
		return nil, &RegistryLocked{Name: name}
	}
	if _, exists := r.vars[name]; exists {
		return nil, &Redefinition{Name: name}
	}
	v := &Variable{
		name:       name,
		kind:       kind,
		flags:      flags,
		validities: make(map[string]bool),
		sink:       sink.NewNoop(),
	}
	r.vars[name] = v
	r.order = append(r.order, name)
	r.layers.Touch(name)

	if options != nil {
		if err := r.SetOptions(name, options); err != nil {
			delete(r.vars, name)
			r.order = r.order[:len(r.order)-1]
			return nil, err
		}
	}
	return v, nil
}

// Lock ends the definition phase: no further Variables may be declared.
func (r *Registry) Lock() error {
	if r.locked {
		return &AlreadyLocked{}
	}
	if len(r.vars) == 0 {
		return &EmptyRegistry{}
	}
	r.locked = true
	return nil
}

// SetSink attaches a real presentation sink to name, replacing the default
// no-op, and wires its frontend_change stream into assign (spec §4.8).
func (r *Registry) SetSink(name string, s sink.Sink) error {
	v, ok := r.vars[name]
	if !ok {
		return &UnknownVariable{Name: name}
	}
	v.sink = s
	s.Changes().Subscribe(func(raw string) {
		r.handleFrontendChange(name, raw)
	})
	return nil
}

// SetLayer assigns name's major layer (first call) or an additional
// higher-indexed layer (subsequent calls).
func (r *Registry) SetLayer(name string, layerIdx int) error {
	if _, ok := r.vars[name]; !ok {
		return &UnknownVariable{Name: name}
	}
	return r.layers.AddLayer(name, layerIdx)
}

// DeclareOptionChild records that child's options are derived from parent,
// so a change to parent designates child for revisit even absent a
// relational edge between them.
func (r *Registry) DeclareOptionChild(parent, child string) {
	r.optionChildren[parent] = append(r.optionChildren[parent], child)
}

// RegisterRelations installs the full relational-assertions bundle
// (spec §4.4, §6); it may only be called once, after Lock.
func (r *Registry) RegisterRelations(relations []logic.Relation) error {
	if !r.locked {
		return fmt.Errorf("variable: RegisterRelations requires a locked registry")
	}
	if err := r.logic.RegisterInterdependencies(relations); err != nil {
		return err
	}
	for name, v := range r.vars {
		v.peers = r.logic.PeersOf(name)
		v.parents = r.logic.ParentsOf(name)
		v.children = r.logic.ChildrenOf(name)
	}
	return nil
}

// AlwaysSet and HasValue let Registry satisfy stage.VariableAccess
// directly, so the Stage Machine can observe the same registry that owns
// assignment.
func (r *Registry) AlwaysSet(name string) bool {
	v, ok := r.vars[name]
	return ok && v.AlwaysSet()
}

func (r *Registry) HasValue(name string) bool {
	v, ok := r.vars[name]
	return ok && v.Value() != nil
}

// Get returns a defined Variable by name.
func (r *Registry) Get(name string) (*Variable, bool) {
	v, ok := r.vars[name]
	return v, ok
}

// Names returns every defined Variable's name in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// SetOptions (re)declares name's finite option domain, replacing any
// previous option-domain assertion atomically, and recomputes validities
// starting at name (spec §4.3).
func (r *Registry) SetOptions(name string, options []expr.Value) error {
	v, ok := r.vars[name]
	if !ok {
		return &UnknownVariable{Name: name}
	}
	for _, o := range options {
		if o.Kind != v.kind {
			return fmt.Errorf("variable: option %s has kind %s, %s expects %s", o.String(), o.Kind, name, v.kind)
		}
	}
	v.options = options
	r.logic.RegisterOptions(name, options)
	r.clearValueIfStale(name)
	r.layers.Traverse([]string{name}, true, r.refreshOne)
	return nil
}

// clearValueIfStale drops name's committed value when it is no longer a
// member of its current option domain, the same way assignLocked's nil
// branch does (spec Invariant 3: "its value is either unset or an element
// of options"). Left in place, a stale value keeps its atom asserted in
// the Logic Engine's assignmentValues forever (original_source's
// config_var_base.py's update_options_validities: "elif self.value is not
// None: self.value = None" on options_changed), which would eventually
// ground a value the option domain no longer admits and make every future
// CheckAssignment unsat.
func (r *Registry) clearValueIfStale(name string) {
	v, ok := r.vars[name]
	if !ok || v.value == nil {
		return
	}
	for _, o := range v.options {
		if o.Equal(*v.value) {
			return
		}
	}
	r.logic.Reset(name)
	v.value = nil
	v.sink.SetValue(sink.NoneValue)
	v.changed.Emit(nil)
}

// Assign is the central entry point (spec §4.3's assignment algorithm).
// val == nil is the unset sentinel and behaves like Reset.
func (r *Registry) Assign(name string, val *expr.Value) error {
	if r.reentrant {
		return &ReentrantAssignment{Name: name}
	}
	r.reentrant = true
	defer func() { r.reentrant = false }()
	return r.assignLocked(name, val)
}

// Reset clears name's assignment and propagates.
func (r *Registry) Reset(name string) error {
	return r.Assign(name, nil)
}

// assignLocked performs the actual algorithm without the reentrancy guard:
// the guard protects against a caller re-entering the public Assign while
// one is in flight, but the auto-assignment cascade from refreshOne is
// legitimate, spec-mandated recursion (spec §5's "recurses into this same
// ordering for the nested variable before returning") and must not trip it.
func (r *Registry) assignLocked(name string, val *expr.Value) error {
	v, ok := r.vars[name]
	if !ok {
		return &UnknownVariable{Name: name}
	}

	if val == nil {
		r.logic.Reset(name)
		v.value = nil
		v.sink.SetValue(sink.NoneValue)
		v.changed.Emit(nil)
		r.layers.Traverse(r.layers.DesignateAffected(name, true), true, r.refreshOne)
		return nil
	}

	if val.Kind != v.kind {
		return fmt.Errorf("variable: %s expects kind %s, got %s", name, v.kind, val.Kind)
	}
	if v.options != nil {
		found := false
		for _, o := range v.options {
			if o.Equal(*val) {
				found = true
				break
			}
		}
		if !found {
			return &NotAnOption{Name: name, Value: val.String()}
		}
	}

	sat, wasUnknown := r.logic.CheckAssignment(name, *val)
	if wasUnknown {
		r.log.WithField("variable", name).Warn("variable: assignment satisfiability check was inconclusive; rejecting")
	}
	if !sat {
		violations := r.logic.RetrieveViolations(name, *val)
		return &ConstraintViolation{
			Name:       name,
			Value:      val.String(),
			Message:    explain.Join(violations),
			Violations: violations,
		}
	}

	r.logic.RegisterAssignment(name, *val)
	committed := *val
	v.value = &committed
	v.sink.SetValue(val.String())
	v.changed.Emit(&committed)

	r.layers.Traverse(r.layers.DesignateAffected(name, true), true, r.refreshOne)
	return nil
}

// refreshOne recomputes name's validities and sink state, applies
// always_set auto-assignment when appropriate, and reports whether
// validities changed (so the Layer Graph knows whether to cascade further).
func (r *Registry) refreshOne(name string) bool {
	v, ok := r.vars[name]
	if !ok || v.options == nil {
		return false
	}

	newValidities := r.logic.GetOptionsValidities(name, v.options)
	changed := !validitiesEqual(v.validities, newValidities)
	v.validities = newValidities

	var display, tooltips []string
	for _, o := range v.options {
		valid := newValidities[o.Key()]
		if v.HideInvalid() && !valid {
			continue
		}
		display = append(display, sink.Decorate(o.String(), valid))
		tooltips = append(tooltips, v.tooltipText(o))
	}
	v.sink.SetOptions(display)
	v.sink.SetTooltips(tooltips)

	if changed && v.AlwaysSet() {
		needsAssign := v.value == nil
		if v.value != nil {
			needsAssign = !newValidities[v.value.Key()]
		}
		if needsAssign {
			for _, o := range v.options {
				if newValidities[o.Key()] {
					candidate := o
					if err := r.assignLocked(name, &candidate); err != nil {
						r.log.WithField("variable", name).WithError(err).Warn("variable: always_set auto-assignment failed")
					}
					break
				}
			}
		}
	}
	return changed
}

func (v *Variable) tooltipText(o expr.Value) string {
	return o.String()
}

// handleFrontendChange implements the engine side of a sink's
// frontend_change event (spec §4.8): strip the marker glyph, parse, and
// assign; on failure surface the explanation and revert the sink.
func (r *Registry) handleFrontendChange(name string, raw string) {
	v, ok := r.vars[name]
	if !ok {
		return
	}
	stripped := stripMarker(raw)
	if stripped == sink.NoneValue {
		if err := r.Assign(name, nil); err != nil {
			r.log.WithField("variable", name).WithError(err).Warn("variable: frontend reset rejected")
		}
		return
	}

	val, err := parseDisplay(v.kind, stripped)
	if err != nil {
		r.log.WithField("variable", name).WithError(err).Warn("variable: could not parse frontend value")
		v.sink.SetValue(v.displayValue())
		return
	}
	if err := r.Assign(name, &val); err != nil {
		r.alert.Emit(Alert{Variable: name, Message: alertMessage(err)})
		v.sink.SetValue(v.displayValue())
		return
	}
}

func alertMessage(err error) string {
	switch e := err.(type) {
	case *ConstraintViolation:
		return e.Message
	case *NotAnOption:
		return e.Error()
	default:
		return err.Error()
	}
}

// parse_display_string dispatch (spec §9): one switch on Kind rather than
// per-subtype virtual methods.
func parseDisplay(kind expr.Kind, s string) (expr.Value, error) {
	switch kind {
	case expr.Str:
		return expr.StringVal(s), nil
	case expr.Bool:
		switch s {
		case "True", "true":
			return expr.BoolVal(true), nil
		case "False", "false":
			return expr.BoolVal(false), nil
		default:
			return expr.Value{}, fmt.Errorf("variable: %q is not a bool", s)
		}
	case expr.Int:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return expr.Value{}, fmt.Errorf("variable: %q is not an int: %w", s, err)
		}
		return expr.IntVal(i), nil
	case expr.Real:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return expr.Value{}, fmt.Errorf("variable: %q is not a real: %w", s, err)
		}
		return expr.RealVal(f), nil
	default:
		return expr.Value{}, fmt.Errorf("variable: unknown kind %v", kind)
	}
}

func validitiesEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func stripMarker(raw string) string {
	for _, marker := range []string{sink.ValidMark + " ", sink.InvalidMark + " "} {
		if len(raw) >= len(marker) && raw[:len(marker)] == marker {
			return raw[len(marker):]
		}
	}
	return raw
}
