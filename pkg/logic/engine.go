// Package logic is the Logic Engine (spec §4.4): the authoritative store of
// assignment, option-domain, and relational assertions, and the single
// entry point for satisfiability and validity queries. It is grounded on
// resolver.SatResolver's role as the sole owner of the installable set
// passed to the SAT layer, and on solver.Solver's push/pop-per-query
// pattern (resolver/solver/solve.go).
package logic

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/CROCODILE-CESM/visualCaseGen/pkg/explain"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/expr"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/smt"
)

// Relation is one entry of a relational-assertions bundle: an expression
// and the human-readable message to surface when it is the (or a) cause of
// an assignment's unsatisfiability.
type Relation struct {
	Expr    expr.Expr
	Message string
}

type compiledRelation struct {
	message string
	term    smt.Lit
	peers   expr.VarSet
	parents expr.VarSet
}

// Engine is the Logic Engine.
type Engine struct {
	backend *smt.Solver
	atoms   *expr.Atoms
	log     logrus.FieldLogger

	kinds func(string) (expr.Kind, bool)

	assignmentValues map[string]expr.Value
	optionAssertions map[string]smt.Lit
	optionValues     map[string][]expr.Value

	relations       []compiledRelation
	relationByMsg   map[string]bool
	allRelationVars expr.VarSet
	locked          bool
}

// New constructs a Logic Engine bound to backend and atoms (both owned by
// the caller so the Variable Registry's assignment code can share the same
// circuit). kinds resolves a Variable's declared ValueKind by name, used to
// type-check relations at registration time.
func New(backend *smt.Solver, atoms *expr.Atoms, kinds func(string) (expr.Kind, bool), log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		backend:          backend,
		atoms:            atoms,
		log:              log,
		kinds:            kinds,
		assignmentValues: make(map[string]expr.Value),
		optionAssertions: make(map[string]smt.Lit),
		optionValues:     make(map[string][]expr.Value),
		relationByMsg:    make(map[string]bool),
		allRelationVars:  expr.VarSet{},
	}
}

// RegisterInterdependencies compiles and installs an entire relational
// bundle in one post-lock call (spec §4.4, §6). It is not safe to call more
// than once in the lifetime of an Engine.
func (e *Engine) RegisterInterdependencies(relations []Relation) error {
	for _, r := range relations {
		if e.relationByMsg[r.Message] {
			return &DuplicateRelation{Message: r.Message}
		}
		compiled, err := e.atoms.Compile(r.Expr, e.kinds)
		if err != nil {
			return err
		}
		e.relationByMsg[r.Message] = true
		e.relations = append(e.relations, compiledRelation{
			message: r.Message,
			term:    compiled.Term,
			peers:   compiled.Peers,
			parents: compiled.Parents,
		})
		e.allRelationVars.AddAll(compiled.Peers)
		e.allRelationVars.AddAll(compiled.Parents)
	}
	e.locked = true

	lits := make([]smt.Lit, 0, len(e.relations))
	for _, r := range e.relations {
		lits = append(lits, r.term)
	}
	outcome, wasUnknown := e.backend.CheckAssuming(lits...)
	if wasUnknown {
		e.log.Warn("logic: startup consistency check was inconclusive; treating the bundle as unsatisfiable")
	}
	if outcome == smt.Unsat {
		msgs := make([]string, 0, len(e.relations))
		for _, r := range e.relations {
			msgs = append(msgs, r.message)
		}
		return &InconsistentRelations{Messages: msgs}
	}
	return nil
}

// PeersOf, ParentsOf and ChildrenOf expose the relational edges derived
// during registration, for the Variable Registry and Layer Graph to copy
// onto their own Variable records (spec §4.4 "maintain related-variable
// edges on each Variable").
func (e *Engine) PeersOf(name string) []string {
	return e.edgesWhere(name, func(r compiledRelation) bool {
		_, inPeers := r.peers[name]
		return inPeers
	}, func(r compiledRelation) expr.VarSet { return r.peers })
}

func (e *Engine) ParentsOf(name string) []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range e.relations {
		if _, ok := r.peers[name]; !ok {
			continue
		}
		for p := range r.parents {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out
}

func (e *Engine) ChildrenOf(name string) []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range e.relations {
		if _, ok := r.parents[name]; !ok {
			continue
		}
		for p := range r.peers {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out
}

func (e *Engine) edgesWhere(name string, match func(compiledRelation) bool, others func(compiledRelation) expr.VarSet) []string {
	seen := map[string]bool{name: true}
	var out []string
	for _, r := range e.relations {
		if !match(r) {
			continue
		}
		for n := range others(r) {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	sort.Strings(out)
	return out
}

// RegisterOptions installs (or atomically replaces) the option-domain
// assertion for name.
func (e *Engine) RegisterOptions(name string, options []expr.Value) {
	e.optionValues[name] = options
	if len(options) == 0 {
		delete(e.optionAssertions, name)
		return
	}
	lits := make([]smt.Lit, 0, len(options))
	for _, v := range options {
		lits = append(lits, e.atoms.EqAtom(name, v))
	}
	e.optionAssertions[name] = e.backend.Or(lits...)
}

// RegisterAssignment installs name's assignment assertion as val.
func (e *Engine) RegisterAssignment(name string, val expr.Value) {
	e.assignmentValues[name] = val
}

// Reset clears name's assignment assertion.
func (e *Engine) Reset(name string) {
	delete(e.assignmentValues, name)
}

// CheckAssignment reports whether the global assertion set remains
// satisfiable if name were assigned val, holding every other Variable's
// current assignment fixed (spec §4.3 step 4, §4.4).
func (e *Engine) CheckAssignment(name string, val expr.Value) (sat bool, wasUnknown bool) {
	lits := e.baseAssumptions(name, val)
	outcome, wasUnknown := e.backend.CheckAssuming(lits...)
	return outcome == smt.Sat, wasUnknown
}

// GetOptionsValidities answers, for every entry of options, whether name
// could validly hold that value given every other Variable's current
// assignment (spec §4.3 "Validity requery").
func (e *Engine) GetOptionsValidities(name string, options []expr.Value) map[string]bool {
	out := make(map[string]bool, len(options))
	for _, o := range options {
		sat, _ := e.CheckAssignment(name, o)
		out[o.Key()] = sat
	}
	return out
}

// baseAssumptions assembles the assumption literals common to
// CheckAssignment and the Error Explainer: every other Variable's
// grounding, every option-domain assertion, every relational assertion,
// plus the tentative name==val grounding.
func (e *Engine) baseAssumptions(name string, val expr.Value) []smt.Lit {
	var lits []smt.Lit
	for other, v := range e.assignmentValues {
		if other == name {
			continue
		}
		lits = append(lits, e.atoms.Ground(other, v)...)
	}
	lits = append(lits, e.atoms.Ground(name, val)...)
	for _, term := range e.optionAssertions {
		lits = append(lits, term)
	}
	for _, r := range e.relations {
		lits = append(lits, r.term)
	}
	return lits
}

// RetrieveViolations implements the Error Explainer (spec §4.7): it
// rebuilds the base state without relational assertions, then tests each
// relation independently against that shared base, collecting every
// relation whose individual addition makes the base unsat — in relation-
// registration order, which is deterministic.
func (e *Engine) RetrieveViolations(name string, val expr.Value) []string {
	var base []smt.Lit
	for other, v := range e.assignmentValues {
		if other == name {
			continue
		}
		base = append(base, e.atoms.Ground(other, v)...)
	}
	base = append(base, e.atoms.Ground(name, val)...)
	for _, term := range e.optionAssertions {
		base = append(base, term)
	}

	e.backend.Test(base...)
	defer e.backend.Untest()

	var causes []string
	for _, r := range e.relations {
		outcome, _ := e.backend.CheckAssuming(r.term)
		if outcome == smt.Unsat {
			causes = append(causes, r.message)
		}
	}
	return causes
}

// RetrieveErrorMessage is RetrieveViolations joined into the single string
// a ConstraintViolation carries.
func (e *Engine) RetrieveErrorMessage(name string, val expr.Value) string {
	return explain.Join(e.RetrieveViolations(name, val))
}
