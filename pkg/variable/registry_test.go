package variable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CROCODILE-CESM/visualCaseGen/pkg/expr"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/logic"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/sink"
	"github.com/CROCODILE-CESM/visualCaseGen/pkg/variable"
)

func newLockedRegistry(t *testing.T, relations []logic.Relation) *variable.Registry {
	t.Helper()
	r := variable.New(nil)
	_, err := r.Define("COMP_ATM", expr.Str, []expr.Value{expr.StringVal("cam"), expr.StringVal("datm")}, variable.Flags{})
	require.NoError(t, err)
	_, err = r.Define("COMP_ICE", expr.Str, []expr.Value{expr.StringVal("dice"), expr.StringVal("cice")}, variable.Flags{})
	require.NoError(t, err)
	require.NoError(t, r.Lock())
	require.NoError(t, r.RegisterRelations(relations))
	return r
}

func camExcludesDice() []logic.Relation {
	return []logic.Relation{
		{
			Expr:    expr.Implies{Antecedent: expr.VarEq("COMP_ATM", expr.StringVal("cam")), Consequent: expr.VarNeq("COMP_ICE", expr.StringVal("dice"))},
			Message: "CAM cannot be coupled with Data ICE.",
		},
	}
}

func TestDefineRejectsRedefinitionAndPostLockDefinition(t *testing.T) {
	r := variable.New(nil)
	_, err := r.Define("A", expr.Str, nil, variable.Flags{})
	require.NoError(t, err)

	_, err = r.Define("A", expr.Str, nil, variable.Flags{})
	var redef *variable.Redefinition
	require.ErrorAs(t, err, &redef)

	require.NoError(t, r.Lock())
	_, err = r.Define("B", expr.Str, nil, variable.Flags{})
	var locked *variable.RegistryLocked
	require.ErrorAs(t, err, &locked)
}

func TestLockRejectsEmptyRegistry(t *testing.T) {
	r := variable.New(nil)
	err := r.Lock()
	var empty *variable.EmptyRegistry
	require.ErrorAs(t, err, &empty)
}

func TestAssignCommitsValidValue(t *testing.T) {
	r := newLockedRegistry(t, camExcludesDice())
	v := expr.StringVal("cam")
	require.NoError(t, r.Assign("COMP_ATM", &v))

	atm, ok := r.Get("COMP_ATM")
	require.True(t, ok)
	require.NotNil(t, atm.Value())
	assert.True(t, atm.Value().Equal(v))
}

func TestAssignRejectsValueOutsideDeclaredOptions(t *testing.T) {
	r := newLockedRegistry(t, camExcludesDice())
	v := expr.StringVal("not-a-real-component")
	err := r.Assign("COMP_ATM", &v)
	var notOption *variable.NotAnOption
	require.ErrorAs(t, err, &notOption)
}

func TestAssignRejectsAndExplainsConstraintViolation(t *testing.T) {
	r := newLockedRegistry(t, camExcludesDice())
	cam := expr.StringVal("cam")
	require.NoError(t, r.Assign("COMP_ATM", &cam))

	dice := expr.StringVal("dice")
	err := r.Assign("COMP_ICE", &dice)
	require.Error(t, err)
	var violation *variable.ConstraintViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "CAM cannot be coupled with Data ICE.", violation.Message)
	assert.Equal(t, []string{"CAM cannot be coupled with Data ICE."}, violation.Violations)
}

// TestRejectedAssignmentLeavesStateUntouched exercises Invariant 3
// (rollback purity): a rejected assignment must not change the Variable's
// committed value, its sink-published value, or downstream validities.
func TestRejectedAssignmentLeavesStateUntouched(t *testing.T) {
	r := newLockedRegistry(t, camExcludesDice())
	cam := expr.StringVal("cam")
	require.NoError(t, r.Assign("COMP_ATM", &cam))

	ice, ok := r.Get("COMP_ICE")
	require.True(t, ok)
	noop, ok := ice.Sink().(*sink.Noop)
	require.True(t, ok)
	valueBefore := noop.Value
	optionsBefore := append([]string(nil), noop.Options...)

	dice := expr.StringVal("dice")
	err := r.Assign("COMP_ICE", &dice)
	require.Error(t, err)

	assert.Nil(t, ice.Value())
	assert.Equal(t, valueBefore, noop.Value)
	assert.Equal(t, optionsBefore, noop.Options)
}

func TestResetClearsValueAndRepublishesNone(t *testing.T) {
	r := newLockedRegistry(t, camExcludesDice())
	cam := expr.StringVal("cam")
	require.NoError(t, r.Assign("COMP_ATM", &cam))
	require.NoError(t, r.Reset("COMP_ATM"))

	atm, _ := r.Get("COMP_ATM")
	assert.Nil(t, atm.Value())
	noop := atm.Sink().(*sink.Noop)
	assert.Equal(t, sink.NoneValue, noop.Value)
}

func TestAssignPropagatesValidityToPeers(t *testing.T) {
	r := newLockedRegistry(t, camExcludesDice())
	cam := expr.StringVal("cam")
	require.NoError(t, r.Assign("COMP_ATM", &cam))

	ice, _ := r.Get("COMP_ICE")
	validities := ice.Validities()
	options := ice.Options()
	for i, o := range options {
		if o.Str == "dice" {
			assert.False(t, validities[i])
		}
		if o.Str == "cice" {
			assert.True(t, validities[i])
		}
	}
}

func TestAlwaysSetAutoAssignsFirstValidOptionOnChange(t *testing.T) {
	r := variable.New(nil)
	_, err := r.Define("COMP_ATM", expr.Str, []expr.Value{expr.StringVal("cam")}, variable.Flags{})
	require.NoError(t, err)
	_, err = r.Define("COMP_ATM_OPTION", expr.Str, nil, variable.Flags{AlwaysSet: true})
	require.NoError(t, err)
	require.NoError(t, r.Lock())
	require.NoError(t, r.RegisterRelations(nil))

	require.NoError(t, r.SetOptions("COMP_ATM_OPTION", []expr.Value{expr.StringVal("FULL"), expr.StringVal("SIMPLE")}))

	opt, _ := r.Get("COMP_ATM_OPTION")
	require.NotNil(t, opt.Value())
	assert.Equal(t, "FULL", opt.Value().Str)
}

// TestSetOptionsClearsStaleValueOutsideNewDomain covers the
// COMP_ATM_PHYS-style case: a non-always_set Variable holds a committed
// value, then its parent changes and its options are fully replaced with a
// domain that no longer contains that value. The stale value must be
// cleared rather than left dangling, both to satisfy Invariant 3 (value is
// unset or an element of options) and to avoid permanently grounding a
// value the Logic Engine no longer has an option assertion for.
func TestSetOptionsClearsStaleValueOutsideNewDomain(t *testing.T) {
	r := variable.New(nil)
	_, err := r.Define("COMP_ATM_PHYS", expr.Str, nil, variable.Flags{})
	require.NoError(t, err)
	require.NoError(t, r.Lock())
	require.NoError(t, r.RegisterRelations(nil))

	require.NoError(t, r.SetOptions("COMP_ATM_PHYS", []expr.Value{expr.StringVal("CAM60"), expr.StringVal("CAM50")}))
	cam60 := expr.StringVal("CAM60")
	require.NoError(t, r.Assign("COMP_ATM_PHYS", &cam60))

	phys, _ := r.Get("COMP_ATM_PHYS")
	require.NotNil(t, phys.Value())

	// Parent flips to a different component: PHYS options are replaced
	// wholesale and no longer include "CAM60".
	require.NoError(t, r.SetOptions("COMP_ATM_PHYS", []expr.Value{expr.StringVal("CORE2")}))
	assert.Nil(t, phys.Value())
	noop := phys.Sink().(*sink.Noop)
	assert.Equal(t, sink.NoneValue, noop.Value)

	// The Logic Engine must no longer ground the stale value either;
	// otherwise every later assignment to any Variable becomes unsat.
	core2 := expr.StringVal("CORE2")
	require.NoError(t, r.Assign("COMP_ATM_PHYS", &core2))
}

func TestHandleFrontendChangeStripsMarkerAndAssigns(t *testing.T) {
	r := newLockedRegistry(t, camExcludesDice())
	noop := sink.NewNoop()
	require.NoError(t, r.SetSink("COMP_ATM", noop))

	noop.Emit(sink.ValidMark + " cam")

	atm, _ := r.Get("COMP_ATM")
	assert.NotNil(t, atm.Value())
	assert.Equal(t, "cam", atm.Value().Str)
}

func TestHandleFrontendChangeRevertsSinkOnAlert(t *testing.T) {
	r := newLockedRegistry(t, camExcludesDice())
	cam := expr.StringVal("cam")
	require.NoError(t, r.Assign("COMP_ATM", &cam))

	var alerts []variable.Alert
	r.OnAlert(func(a variable.Alert) { alerts = append(alerts, a) })

	noop := sink.NewNoop()
	require.NoError(t, r.SetSink("COMP_ICE", noop))
	noop.Emit(sink.ValidMark + " dice")

	require.Len(t, alerts, 1)
	assert.Equal(t, "COMP_ICE", alerts[0].Variable)
	assert.Equal(t, sink.NoneValue, noop.Value)
}
