// Package smt is the SMT Backend Adapter (spec §4.2): a thin, swappable
// wrapper around an incremental boolean satisfiability engine. The engine
// never talks to the underlying solver library directly; it only ever sees
// Lit, Solver.NewAtom/And/Or/Not/Implies, and Solver.Test/Untest/
// CheckAssuming.
//
// The concrete backend is github.com/go-air/gini: a Tseitin circuit
// (*logic.C) builds the combinational structure, and an incremental SAT
// instance (gini.New()) answers check-under-assumptions queries via
// Assume/Test/Untest/Solve, the same push/pop pattern
// resolver/solver/solve.go wraps as depthTrackingGini.
package smt

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/sirupsen/logrus"
)

// Lit is a literal in the underlying circuit: either an atom or its
// negation. Zero value is meaningless; use Solver.NewAtom or a Compiler to
// obtain one.
type Lit = z.Lit

// Outcome is the tri-state result of an SMT query, collapsed to Sat/Unsat
// at the public API boundary (spec §4.2: "unknown is treated as unsat for
// conservatism, and must be logged").
type Outcome int

const (
	Sat Outcome = iota
	Unsat
)

// gini's own outcome codes, used only internally.
const (
	giniSat     = 1
	giniUnsat   = -1
	giniUnknown = 0
)

// Solver is the concrete SMT Backend Adapter.
type Solver struct {
	g   inter.S
	c   *logic.C
	log logrus.FieldLogger
}

// New constructs a Solver. A nil logger falls back to logrus's standard
// logger, matching how OperatorCache and SatResolver default an unset
// logrus.FieldLogger in the teacher.
func New(log logrus.FieldLogger) *Solver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Solver{
		g:   gini.New(),
		c:   logic.NewCCap(256),
		log: log,
	}
}

// NewAtom allocates a fresh, independent boolean atom (a new SAT variable).
func (s *Solver) NewAtom() Lit {
	return s.c.Lit()
}

// Not returns the negation of a literal. It never touches the solver.
func (s *Solver) Not(a Lit) Lit {
	return a.Not()
}

// Or returns a literal equivalent to the disjunction of lits. It panics on
// an empty lits; the compiler rejects empty Or/In nodes before reaching
// here, so it always supplies at least one disjunct.
func (s *Solver) Or(lits ...Lit) Lit {
	if len(lits) == 0 {
		panic("smt: Or requires at least one literal")
	}
	m := lits[0]
	for _, l := range lits[1:] {
		m = s.c.Or(m, l)
	}
	return m
}

// And returns a literal equivalent to the conjunction of lits, built from
// Or and Not via De Morgan's law: go-air/gini's logic.C exposes Or as its
// combinational primitive (see resolver/solver/constraints.go, which never
// calls an And method), so conjunction is expressed the same way the
// teacher expresses "neither of these two" in its conflict constraint:
// Not(Or(Not(a), Not(b))).
func (s *Solver) And(lits ...Lit) Lit {
	if len(lits) == 0 {
		panic("smt: And requires at least one literal")
	}
	negated := make([]Lit, len(lits))
	for i, l := range lits {
		negated[i] = l.Not()
	}
	return s.Or(negated...).Not()
}

// Implies returns a literal equivalent to a => b.
func (s *Solver) Implies(a, b Lit) Lit {
	return s.Or(a.Not(), b)
}

// Test pushes a new incremental scope in which lits are additionally
// assumed true, on top of whatever scopes are already pushed, and reports
// satisfiability. It first tries cheap unit propagation (gini's Test) and
// escalates to a full search (gini's Solve) only when propagation alone is
// inconclusive, mirroring resolver/solver/solve.go's own escalation from
// Test to Solve. Every Test must be paired with exactly one Untest.
//
// wasUnknown reports whether even the full search left the result
// indeterminate; per spec §4.2/§7 this is treated as Unsat and logged, and
// is exposed here only so callers can surface SolverUnknown in debug mode.
func (s *Solver) Test(lits ...Lit) (outcome Outcome, wasUnknown bool) {
	s.c.ToCnf(s.g)
	s.g.Assume(lits...)
	code, _ := s.g.Test(nil)
	if code != giniSat && code != giniUnsat {
		s.g.Assume(lits...)
		code = s.g.Solve()
	}
	return s.classify(code)
}

// Untest pops the most recently pushed Test scope.
func (s *Solver) Untest() {
	s.g.Untest()
}

// CheckAssuming is a single-shot convenience combining Test and Untest:
// check satisfiability of the currently committed state plus lits, without
// leaving any scope pushed afterward.
func (s *Solver) CheckAssuming(lits ...Lit) (outcome Outcome, wasUnknown bool) {
	outcome, wasUnknown = s.Test(lits...)
	s.Untest()
	return outcome, wasUnknown
}

func (s *Solver) classify(code int) (Outcome, bool) {
	switch code {
	case giniSat:
		return Sat, false
	case giniUnsat:
		return Unsat, false
	default:
		s.log.WithField("code", code).Warn("smt: solver returned an inconclusive result; treating the query as unsat")
		return Unsat, true
	}
}
