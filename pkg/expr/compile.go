package expr

import (
	"fmt"

	"github.com/CROCODILE-CESM/visualCaseGen/pkg/smt"
)

// VarSet is a small set of Variable names, used for the free-variable and
// antecedent-variable side channels the compiler produces alongside each
// compiled term (spec §4.1).
type VarSet map[string]struct{}

func newVarSet(names ...string) VarSet {
	s := make(VarSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s VarSet) add(other VarSet) {
	for n := range other {
		s[n] = struct{}{}
	}
}

// AddAll merges other into s in place; exported for callers outside this
// package (pkg/logic) that accumulate variable sets across many relations.
func (s VarSet) AddAll(other VarSet) {
	s.add(other)
}

// Names returns the set's members as a slice, in no particular order.
func (s VarSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	return out
}

// Compiled is the result of compiling one top-level relational assertion:
// the SMT term, its peer variable set (spec §4.4), and — only
// for a When — the antecedent's variable set (parents, spec §4.1/§4.4).
// Variables appearing only in the antecedent are parents; every other free
// variable (including consequent variables of a When) is a peer.
type Compiled struct {
	Term    smt.Lit
	Peers   VarSet
	Parents VarSet
	IsWhen  bool
}

// Compile lowers a top-level Expr (an Invariant body, or a When) into a
// Compiled term. Kinds is consulted to type-check Cmp nodes against the
// referenced Variable's declared ValueKind.
func (a *Atoms) Compile(e Expr, kinds func(name string) (Kind, bool)) (Compiled, error) {
	switch node := e.(type) {
	case When:
		antLit, antFree, err := a.compile(node.Antecedent, kinds)
		if err != nil {
			return Compiled{}, fmt.Errorf("expr: compiling when-antecedent: %w", err)
		}
		conLit, conFree, err := a.compile(node.Consequent, kinds)
		if err != nil {
			return Compiled{}, fmt.Errorf("expr: compiling when-consequent: %w", err)
		}
		term := a.backend.Implies(antLit, conLit)
		peers := newVarSet()
		peers.add(conFree)
		parents := newVarSet()
		parents.add(antFree)
		// A variable referenced in both antecedent and consequent is a
		// peer (it has its own options to revisit), not a parent.
		for n := range antFree {
			if _, alsoConsequent := conFree[n]; !alsoConsequent {
				continue
			}
			delete(parents, n)
		}
		return Compiled{Term: term, Peers: peers, Parents: parents, IsWhen: true}, nil
	default:
		term, free, err := a.compile(e, kinds)
		if err != nil {
			return Compiled{}, err
		}
		return Compiled{Term: term, Peers: free, Parents: newVarSet()}, nil
	}
}

func (a *Atoms) compile(e Expr, kinds func(name string) (Kind, bool)) (smt.Lit, VarSet, error) {
	switch node := e.(type) {
	case VarRef:
		return smt.Lit(0), nil, fmt.Errorf("expr: a bare variable reference is not a valid boolean expression; use a comparison")

	case Const:
		return smt.Lit(0), nil, fmt.Errorf("expr: a bare constant is not a valid boolean expression; use a comparison")

	case Cmp:
		return a.compileCmp(node, kinds)

	case In:
		kind, ok := kinds(node.Var)
		if !ok {
			return 0, nil, fmt.Errorf("expr: unknown variable %q", node.Var)
		}
		if len(node.Values) == 0 {
			return 0, nil, fmt.Errorf("expr: In(%s, []) has no candidates", node.Var)
		}
		lits := make([]smt.Lit, 0, len(node.Values))
		for _, v := range node.Values {
			if v.Kind != kind {
				return 0, nil, fmt.Errorf("expr: In(%s, ...) value kind %s does not match variable kind %s", node.Var, v.Kind, kind)
			}
			lits = append(lits, a.EqAtom(node.Var, v))
		}
		return a.backend.Or(lits...), newVarSet(node.Var), nil

	case And:
		return a.compileConn(node.Exprs, kinds, a.backend.And, true)

	case Or:
		return a.compileConn(node.Exprs, kinds, a.backend.Or, false)

	case Not:
		lit, free, err := a.compile(node.Expr, kinds)
		if err != nil {
			return 0, nil, err
		}
		return a.backend.Not(lit), free, nil

	case Implies:
		aLit, aFree, err := a.compile(node.Antecedent, kinds)
		if err != nil {
			return 0, nil, err
		}
		bLit, bFree, err := a.compile(node.Consequent, kinds)
		if err != nil {
			return 0, nil, err
		}
		free := newVarSet()
		free.add(aFree)
		free.add(bFree)
		return a.backend.Implies(aLit, bLit), free, nil

	case When:
		return 0, nil, fmt.Errorf("expr: nested When is not supported; When may only appear as a top-level relational assertion")

	default:
		return 0, nil, fmt.Errorf("expr: unsupported expression node %T", e)
	}
}

func (a *Atoms) compileConn(exprs []Expr, kinds func(string) (Kind, bool), combine func(...smt.Lit) smt.Lit, identityIsTrue bool) (smt.Lit, VarSet, error) {
	if len(exprs) == 0 {
		return 0, nil, fmt.Errorf("expr: empty And/Or is not supported")
	}
	lits := make([]smt.Lit, 0, len(exprs))
	free := newVarSet()
	for _, sub := range exprs {
		lit, subFree, err := a.compile(sub, kinds)
		if err != nil {
			return 0, nil, err
		}
		lits = append(lits, lit)
		free.add(subFree)
	}
	return combine(lits...), free, nil
}

// compileCmp requires exactly one Var operand and one Const operand: this
// engine supports the fragment in spec §4.2 (relations between a Variable
// and literal values), not Variable-to-Variable comparison.
func (a *Atoms) compileCmp(c Cmp, kinds func(string) (Kind, bool)) (smt.Lit, VarSet, error) {
	var varName string
	var constVal Value
	op := c.Op
	switch {
	case c.Left.IsVar && !c.Right.IsVar:
		varName, constVal = c.Left.Var, c.Right.Const
	case !c.Left.IsVar && c.Right.IsVar:
		varName, constVal = c.Right.Var, c.Left.Const
		op = flip(op)
	default:
		return 0, nil, fmt.Errorf("expr: comparison must be between a Variable and a constant value")
	}

	kind, ok := kinds(varName)
	if !ok {
		return 0, nil, fmt.Errorf("expr: unknown variable %q", varName)
	}
	if constVal.Kind != kind {
		return 0, nil, fmt.Errorf("expr: %s has kind %s, cannot compare against a %s constant", varName, kind, constVal.Kind)
	}
	if op.Ordered() && !constVal.Numeric() {
		return 0, nil, fmt.Errorf("expr: ordered comparison %s on non-numeric variable %s", op, varName)
	}

	free := newVarSet(varName)
	switch op {
	case Eq:
		return a.EqAtom(varName, constVal), free, nil
	case Neq:
		return a.backend.Not(a.EqAtom(varName, constVal)), free, nil
	case Lt, Leq, Gt, Geq:
		return a.OrderAtom(varName, op, constVal), free, nil
	default:
		return 0, nil, fmt.Errorf("expr: unknown comparison operator %v", op)
	}
}

// flip swaps the direction of an ordered operator when its operands were
// written constant-first (e.g. 5 < V becomes V > 5); Eq/Neq are
// symmetric and pass through unchanged.
func flip(op CmpOp) CmpOp {
	switch op {
	case Lt:
		return Gt
	case Leq:
		return Geq
	case Gt:
		return Lt
	case Geq:
		return Leq
	default:
		return op
	}
}
