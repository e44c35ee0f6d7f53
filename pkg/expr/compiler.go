package expr

import (
	"sort"

	"github.com/CROCODILE-CESM/visualCaseGen/pkg/smt"
)

// VarInfo is what the compiler needs to know about a Variable in order to
// type-check and compile references to it. It is a narrow read-only view;
// pkg/variable.Variable satisfies it directly.
type VarInfo interface {
	Name() string
	ValueKind() Kind
}

type orderEntry struct {
	op  CmpOp
	val Value
	lit smt.Lit
}

// Atoms is the Compiler (spec §4.1): it lowers Expr trees into smt.Lit
// circuit nodes, interning one atom per distinct (variable, value)
// equality fact and one atom per distinct (variable, operator, value)
// ordering fact, so that the same fact referenced from multiple relational
// assertions shares a single SAT variable.
//
// Per DESIGN.md's Open Question resolution, order/equality atoms are
// "grounded" (pinned to a concrete truth value) only once their variable
// holds a concrete value; an atom for a still-unset, option-less variable
// is left free, so assertions mentioning it are satisfiable either way
// until it is actually assigned.
type Atoms struct {
	backend *smt.Solver
	eq      map[string]map[string]smt.Lit // var -> value.Key() -> atom
	eqOrder map[string][]string           // var -> value.Key()s in first-seen order
	order   map[string][]orderEntry       // var -> order facts, in first-seen order
}

// NewAtoms constructs an Atoms compiler bound to backend.
func NewAtoms(backend *smt.Solver) *Atoms {
	return &Atoms{
		backend: backend,
		eq:      make(map[string]map[string]smt.Lit),
		eqOrder: make(map[string][]string),
		order:   make(map[string][]orderEntry),
	}
}

// EqAtom returns the (interned) literal for "var == value", allocating a
// fresh atom the first time this (var, value) pair is seen. Mutual
// exclusion between a variable's own equality atoms is not asserted
// structurally: Ground pins every known atom of a concretely-valued
// variable consistently (the matching one true, every other one false),
// which is the only place consistency actually needs to be enforced (spec
// Invariant 4 always evaluates one concrete candidate value at a time).
func (a *Atoms) EqAtom(varName string, v Value) smt.Lit {
	byVal, ok := a.eq[varName]
	if !ok {
		byVal = make(map[string]smt.Lit)
		a.eq[varName] = byVal
	}
	key := v.Key()
	if lit, ok := byVal[key]; ok {
		return lit
	}
	lit := a.backend.NewAtom()
	byVal[key] = lit
	a.eqOrder[varName] = append(a.eqOrder[varName], key)
	return lit
}

// OrderAtom returns the (interned) literal for "var op value" where op is
// one of Lt/Leq/Gt/Geq and value is numeric.
func (a *Atoms) OrderAtom(varName string, op CmpOp, v Value) smt.Lit {
	for _, e := range a.order[varName] {
		if e.op == op && e.val.Equal(v) {
			return e.lit
		}
	}
	lit := a.backend.NewAtom()
	a.order[varName] = append(a.order[varName], orderEntry{op: op, val: v, lit: lit})
	return lit
}

// Ground returns the assumption literals that pin every atom known for
// varName to the truth value implied by the concrete value val. Call this
// for every variable that currently holds a concrete value (the committed
// value of every other variable, plus the tentative candidate under test)
// before checking satisfiability; variables with no concrete value
// contribute nothing and their atoms remain free.
func (a *Atoms) Ground(varName string, val Value) []smt.Lit {
	var lits []smt.Lit
	if byVal, ok := a.eq[varName]; ok {
		for _, key := range a.eqOrder[varName] {
			lit := byVal[key]
			if key == val.Key() {
				lits = append(lits, lit)
			} else {
				lits = append(lits, a.backend.Not(lit))
			}
		}
	}
	if val.Numeric() {
		for _, e := range a.order[varName] {
			if !e.val.Numeric() {
				continue
			}
			if evalOrder(e.op, val, e.val) {
				lits = append(lits, e.lit)
			} else {
				lits = append(lits, a.backend.Not(e.lit))
			}
		}
	}
	// Deterministic order keeps Assume() calls (and therefore solver
	// traces) reproducible across runs.
	sort.Slice(lits, func(i, j int) bool { return uint32(lits[i]) < uint32(lits[j]) })
	return lits
}

func evalOrder(op CmpOp, v, c Value) bool {
	switch op {
	case Lt:
		return v.Less(c)
	case Leq:
		return v.Less(c) || v.Equal(c)
	case Gt:
		return c.Less(v)
	case Geq:
		return c.Less(v) || v.Equal(c)
	default:
		return false
	}
}
