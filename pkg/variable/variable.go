package variable

import (
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/expr"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/observable"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/sink"
)

// Flags are the per-Variable behavior switches from spec §3.
type Flags struct {
	// AlwaysSet: after options change, auto-assign the first valid option.
	AlwaysSet bool
	// HideInvalid: presentation hides invalid options.
	HideInvalid bool
}

// Variable is the engine's typed configuration variable (spec §3, §9's
// "sum-typed variables": one struct, a Kind discriminant, no inheritance).
type Variable struct {
	name  string
	kind  expr.Kind
	flags Flags

	value   *expr.Value
	options []expr.Value

	// validities is keyed by Value.Key(), aligned with options.
	validities map[string]bool
	tooltips   []string

	majorLayer int
	extraLayer []int

	sink sink.Sink

	peers    []string
	parents  []string
	children []string

	changed observable.Observable[*expr.Value]
}

// Name satisfies expr.VarInfo.
func (v *Variable) Name() string { return v.name }

// ValueKind satisfies expr.VarInfo.
func (v *Variable) ValueKind() expr.Kind { return v.kind }

// Value returns the Variable's current value, or nil if unset.
func (v *Variable) Value() *expr.Value { return v.value }

// Options returns the Variable's declared options, or nil for an infinite
// domain.
func (v *Variable) Options() []expr.Value { return v.options }

// Validities returns the current validity of every declared option,
// aligned index-for-index with Options().
func (v *Variable) Validities() []bool {
	out := make([]bool, len(v.options))
	for i, o := range v.options {
		out[i] = v.validities[o.Key()]
	}
	return out
}

// AlwaysSet reports the always_set flag.
func (v *Variable) AlwaysSet() bool { return v.flags.AlwaysSet }

// HideInvalid reports the hide_invalid flag.
func (v *Variable) HideInvalid() bool { return v.flags.HideInvalid }

// Sink returns the Variable's presentation sink.
func (v *Variable) Sink() sink.Sink { return v.sink }

// Peers, Parents, Children expose the relational edges registered during
// RegisterRelations.
func (v *Variable) Peers() []string    { return v.peers }
func (v *Variable) Parents() []string  { return v.parents }
func (v *Variable) Children() []string { return v.children }

// OnChange subscribes listener to the Variable's value-change Observable.
// The Stage Machine uses this to watch guard antecedent variables (spec §9).
func (v *Variable) OnChange(listener func(*expr.Value)) {
	v.changed.Subscribe(listener)
}

func (v *Variable) displayValue() string {
	if v.value == nil {
		return sink.NoneValue
	}
	return v.value.String()
}
