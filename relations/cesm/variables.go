// Package cesm is the standard relation bundle recovered from
// original_source/visualCaseGen/relational_assertions.py (spec §6's
// "Relational-assertions bundle (consumed)"). DefineVariables declares the
// component/physics/option Variables a bundle of this shape needs, wired
// to a catalog.DomainCatalog; Bundle compiles the actual invariants and
// when-clauses spec.md's seed scenarios S1-S5 exercise.
package cesm

import (
	"sort"

	"github.com/CROCODILE-CESM/visualCaseGen/pkg/catalog"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/expr"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/variable"
)

// classes lists the seven component classes in the order their Variables
// are defined, matching relational_assertions.py's own ATM/LND/ICE/OCN/
// ROF/GLC/WAV ordering.
var classes = []catalog.ComponentClass{
	catalog.ATM, catalog.LND, catalog.ICE, catalog.OCN,
	catalog.ROF, catalog.GLC, catalog.WAV,
}

// NoneOption is the sentinel original_source uses for "no option picked
// yet" on a *_OPTION Variable.
const NoneOption = "(none)"

// DefineVariables declares COMP_<X>, COMP_<X>_PHYS and COMP_<X>_OPTION for
// every component class, plus the custom-ocean-grid Variables spec.md's S5
// exercises, and wires the component→physics→option cascade as Layer
// Graph option-children (spec §4.5's own rationale example).
func DefineVariables(r *variable.Registry, cat catalog.DomainCatalog) error {
	for _, class := range classes {
		compName := "COMP_" + string(class)
		physName := compName + "_PHYS"
		optName := compName + "_OPTION"

		var names []expr.Value
		for _, c := range cat.Components(class) {
			names = append(names, expr.StringVal(c.Name))
		}
		if _, err := r.Define(compName, expr.Str, names, variable.Flags{HideInvalid: true}); err != nil {
			return err
		}
		if _, err := r.Define(physName, expr.Str, nil, variable.Flags{HideInvalid: true}); err != nil {
			return err
		}
		if _, err := r.Define(optName, expr.Str, nil, variable.Flags{AlwaysSet: true, HideInvalid: true}); err != nil {
			return err
		}

		if err := r.SetLayer(compName, 0); err != nil {
			return err
		}
		if err := r.SetLayer(physName, 1); err != nil {
			return err
		}
		if err := r.SetLayer(optName, 2); err != nil {
			return err
		}
		r.DeclareOptionChild(compName, physName)
		r.DeclareOptionChild(physName, optName)

		class, compName, physName := class, compName, physName // capture for closures
		compVar, _ := r.Get(compName)
		compVar.OnChange(func(val *expr.Value) {
			refreshPhysOptions(r, cat, class, val, physName)
		})
		physVar, _ := r.Get(physName)
		physVar.OnChange(func(val *expr.Value) {
			refreshOptionOptions(r, cat, class, compVar.Value(), val, optName)
		})
	}

	if _, err := r.Define("OCN_GRID_EXTENT", expr.Str, []expr.Value{expr.StringVal("Regional"), expr.StringVal("Global")}, variable.Flags{}); err != nil {
		return err
	}
	if _, err := r.Define("OCN_CYCLIC_X", expr.Bool, []expr.Value{expr.BoolVal(true), expr.BoolVal(false)}, variable.Flags{}); err != nil {
		return err
	}
	if _, err := r.Define("OCN_CYCLIC_Y", expr.Bool, []expr.Value{expr.BoolVal(true), expr.BoolVal(false)}, variable.Flags{}); err != nil {
		return err
	}
	if _, err := r.Define("OCN_LENX", expr.Real, nil, variable.Flags{}); err != nil {
		return err
	}
	if _, err := r.Define("OCN_LENY", expr.Real, nil, variable.Flags{}); err != nil {
		return err
	}
	return nil
}

func refreshPhysOptions(r *variable.Registry, cat catalog.DomainCatalog, class catalog.ComponentClass, compVal *expr.Value, physName string) {
	if compVal == nil {
		_ = r.SetOptions(physName, nil)
		return
	}
	for _, c := range cat.Components(class) {
		if c.Name != compVal.Str {
			continue
		}
		keys := make([]string, 0, len(c.Physics))
		for k := range c.Physics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		opts := make([]expr.Value, 0, len(keys))
		for _, k := range keys {
			opts = append(opts, expr.StringVal(k))
		}
		_ = r.SetOptions(physName, opts)
		return
	}
	_ = r.SetOptions(physName, nil)
}

func refreshOptionOptions(r *variable.Registry, cat catalog.DomainCatalog, class catalog.ComponentClass, compVal, physVal *expr.Value, optName string) {
	if compVal == nil || physVal == nil {
		_ = r.SetOptions(optName, []expr.Value{expr.StringVal(NoneOption)})
		return
	}
	for _, c := range cat.Components(class) {
		if c.Name != compVal.Str {
			continue
		}
		physOpts, ok := c.Physics[physVal.Str]
		if !ok {
			break
		}
		opts := []expr.Value{expr.StringVal(NoneOption)}
		for _, o := range physOpts {
			opts = append(opts, expr.StringVal(o.Value))
		}
		_ = r.SetOptions(optName, opts)
		return
	}
	_ = r.SetOptions(optName, []expr.Value{expr.StringVal(NoneOption)})
}
