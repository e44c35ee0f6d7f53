package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CROCODILE-CESM/visualCaseGen/pkg/smt"
)

func kindsOf(m map[string]Kind) func(string) (Kind, bool) {
	return func(name string) (Kind, bool) {
		k, ok := m[name]
		return k, ok
	}
}

func TestCompileEqAndGround(t *testing.T) {
	backend := smt.New(nil)
	atoms := NewAtoms(backend)
	kinds := kindsOf(map[string]Kind{"OCN": Str})

	compiled, err := atoms.Compile(VarEq("OCN", StringVal("POP2")), kinds)
	require.NoError(t, err)
	assert.Contains(t, compiled.Peers, "OCN")
	assert.Empty(t, compiled.Parents)

	outcome, unknown := backend.CheckAssuming(append([]smt.Lit{compiled.Term}, atoms.Ground("OCN", StringVal("POP2"))...)...)
	assert.Equal(t, smt.Sat, outcome)
	assert.False(t, unknown)

	outcome, _ = backend.CheckAssuming(append([]smt.Lit{compiled.Term}, atoms.Ground("OCN", StringVal("MOM6"))...)...)
	assert.Equal(t, smt.Unsat, outcome)
}

func TestCompileWhenSeparatesParentsFromPeers(t *testing.T) {
	backend := smt.New(nil)
	atoms := NewAtoms(backend)
	kinds := kindsOf(map[string]Kind{"COMP_OCN": Str, "COMP_WAV": Str})

	when := When{
		Antecedent: VarEq("COMP_OCN", StringVal("DOCN")),
		Consequent: VarNeq("COMP_WAV", StringVal("WW3")),
	}
	compiled, err := atoms.Compile(when, kinds)
	require.NoError(t, err)
	assert.True(t, compiled.IsWhen)
	assert.Contains(t, compiled.Parents, "COMP_OCN")
	assert.Contains(t, compiled.Peers, "COMP_WAV")
	assert.NotContains(t, compiled.Peers, "COMP_OCN")

	lits := append([]smt.Lit{compiled.Term}, atoms.Ground("COMP_OCN", StringVal("DOCN"))...)
	lits = append(lits, atoms.Ground("COMP_WAV", StringVal("WW3"))...)
	outcome, _ := backend.CheckAssuming(lits...)
	assert.Equal(t, smt.Unsat, outcome)

	lits = append([]smt.Lit{compiled.Term}, atoms.Ground("COMP_OCN", StringVal("POP2"))...)
	lits = append(lits, atoms.Ground("COMP_WAV", StringVal("WW3"))...)
	outcome, _ = backend.CheckAssuming(lits...)
	assert.Equal(t, smt.Sat, outcome)
}

func TestCompileInExpandsToDisjunction(t *testing.T) {
	backend := smt.New(nil)
	atoms := NewAtoms(backend)
	kinds := kindsOf(map[string]Kind{"GRID": Str})

	compiled, err := atoms.Compile(In{Var: "GRID", Values: []Value{StringVal("f19"), StringVal("f09")}}, kinds)
	require.NoError(t, err)

	outcome, _ := backend.CheckAssuming(append([]smt.Lit{compiled.Term}, atoms.Ground("GRID", StringVal("f09"))...)...)
	assert.Equal(t, smt.Sat, outcome)

	outcome, _ = backend.CheckAssuming(append([]smt.Lit{compiled.Term}, atoms.Ground("GRID", StringVal("ne30"))...)...)
	assert.Equal(t, smt.Unsat, outcome)
}

func TestCompileOrderedComparison(t *testing.T) {
	backend := smt.New(nil)
	atoms := NewAtoms(backend)
	kinds := kindsOf(map[string]Kind{"NTASKS": Int})

	compiled, err := atoms.Compile(VarGt("NTASKS", IntVal(4)), kinds)
	require.NoError(t, err)

	outcome, _ := backend.CheckAssuming(append([]smt.Lit{compiled.Term}, atoms.Ground("NTASKS", IntVal(8))...)...)
	assert.Equal(t, smt.Sat, outcome)

	outcome, _ = backend.CheckAssuming(append([]smt.Lit{compiled.Term}, atoms.Ground("NTASKS", IntVal(2))...)...)
	assert.Equal(t, smt.Unsat, outcome)
}

func TestCompileRejectsVarToVarComparison(t *testing.T) {
	backend := smt.New(nil)
	atoms := NewAtoms(backend)
	kinds := kindsOf(map[string]Kind{"A": Str, "B": Str})

	_, err := atoms.Compile(Cmp{Op: Eq, Left: VarOperand("A"), Right: VarOperand("B")}, kinds)
	assert.Error(t, err)
}

func TestCompileRejectsKindMismatch(t *testing.T) {
	backend := smt.New(nil)
	atoms := NewAtoms(backend)
	kinds := kindsOf(map[string]Kind{"OCN": Str})

	_, err := atoms.Compile(VarEq("OCN", IntVal(1)), kinds)
	assert.Error(t, err)
}

func TestCompileAndOrNot(t *testing.T) {
	backend := smt.New(nil)
	atoms := NewAtoms(backend)
	kinds := kindsOf(map[string]Kind{"A": Bool, "B": Bool})

	expr := And{Exprs: []Expr{
		Not{Expr: VarEq("A", BoolVal(false))},
		Or{Exprs: []Expr{VarEq("B", BoolVal(true)), VarEq("B", BoolVal(false))}},
	}}
	compiled, err := atoms.Compile(expr, kinds)
	require.NoError(t, err)

	lits := append([]smt.Lit{compiled.Term}, atoms.Ground("A", BoolVal(true))...)
	lits = append(lits, atoms.Ground("B", BoolVal(true))...)
	outcome, _ := backend.CheckAssuming(lits...)
	assert.Equal(t, smt.Sat, outcome)

	lits = append([]smt.Lit{compiled.Term}, atoms.Ground("A", BoolVal(false))...)
	lits = append(lits, atoms.Ground("B", BoolVal(true))...)
	outcome, _ = backend.CheckAssuming(lits...)
	assert.Equal(t, smt.Unsat, outcome)
}
