package stage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CROCODILE-CESM/visualCaseGen/pkg/stage"
)

// fakeVars is a minimal in-memory stage.VariableAccess for exercising the
// Stage Machine without a real Variable Registry.
type fakeVars struct {
	alwaysSet map[string]bool
	values    map[string]bool
	resets    []string
}

func newFakeVars() *fakeVars {
	return &fakeVars{alwaysSet: map[string]bool{}, values: map[string]bool{}}
}

func (f *fakeVars) AlwaysSet(name string) bool { return f.alwaysSet[name] }
func (f *fakeVars) HasValue(name string) bool  { return f.values[name] }
func (f *fakeVars) Reset(name string) error {
	delete(f.values, name)
	f.resets = append(f.resets, name)
	return nil
}

func TestMachineActivatesFirstLeafAtStartup(t *testing.T) {
	vars := newFakeVars()
	vars.alwaysSet["A"] = true
	leaf := stage.New("Leaf", nil, []string{"A"})
	root := stage.New("Root", nil, nil, leaf)

	m := stage.NewMachine(root, vars, nil)
	require.NotNil(t, m.Active())
	assert.Equal(t, "Leaf", m.Active().Title())
	assert.True(t, leaf.First())
}

func TestMachineAdvancesToNextLeafWhenCurrentCompletes(t *testing.T) {
	vars := newFakeVars()
	vars.alwaysSet["A"] = true
	vars.alwaysSet["B"] = true
	first := stage.New("First", nil, []string{"A"})
	second := stage.New("Second", nil, []string{"B"})
	root := stage.New("Root", nil, nil, first, second)

	m := stage.NewMachine(root, vars, nil)
	assert.Equal(t, "First", m.Active().Title())

	vars.values["A"] = true
	m.Reevaluate()
	assert.Equal(t, "Second", m.Active().Title())
}

func TestMachineSkipsStageWhenGuardFalse(t *testing.T) {
	vars := newFakeVars()
	vars.alwaysSet["A"] = true
	vars.alwaysSet["B"] = true
	skip := stage.New("Skip", func() bool { return false }, []string{"A"})
	leaf := stage.New("Leaf", nil, []string{"B"})
	root := stage.New("Root", nil, nil, skip, leaf)

	m := stage.NewMachine(root, vars, nil)
	assert.False(t, skip.Enabled())
	assert.Equal(t, "Leaf", m.Active().Title())
}

func TestMachineCompletesWithNilActiveWhenEveryStageDone(t *testing.T) {
	vars := newFakeVars()
	vars.alwaysSet["A"] = true
	vars.values["A"] = true
	leaf := stage.New("Leaf", nil, []string{"A"})
	root := stage.New("Root", nil, nil, leaf)

	m := stage.NewMachine(root, vars, nil)
	assert.Nil(t, m.Active())
	assert.True(t, leaf.Complete())
}

// TestMachineRecomputesEverySiblingNotJustThroughTheFirstActiveLeaf covers
// a three-sibling tree where the second sibling's guard depends on a
// Variable unrelated to the first (still-incomplete, still-active)
// sibling. recompute must visit every sibling on each Reevaluate so a
// later sibling's enabled/guard state never goes stale just because an
// earlier sibling is still active.
func TestMachineRecomputesEverySiblingNotJustThroughTheFirstActiveLeaf(t *testing.T) {
	vars := newFakeVars()
	vars.alwaysSet["A"] = true
	vars.alwaysSet["C"] = true
	gateOpen := false
	first := stage.New("First", nil, []string{"A"})
	second := stage.New("Second", func() bool { return gateOpen }, []string{"B"})
	third := stage.New("Third", nil, []string{"C"})
	root := stage.New("Root", nil, nil, first, second, third)

	m := stage.NewMachine(root, vars, nil)
	assert.Equal(t, "First", m.Active().Title())
	assert.False(t, second.Enabled())

	gateOpen = true
	m.Reevaluate()

	assert.True(t, second.Enabled(), "Second's guard must be re-evaluated even while First is still active")
	assert.Equal(t, "First", m.Active().Title(), "First is still incomplete and stays active")
}

func TestStageResetClearsVarsInReverseOrderAndReevaluates(t *testing.T) {
	vars := newFakeVars()
	vars.alwaysSet["A"] = true
	vars.alwaysSet["B"] = true
	vars.values["A"] = true
	vars.values["B"] = true
	leaf := stage.New("Leaf", nil, []string{"A", "B"})
	root := stage.New("Root", nil, nil, leaf)

	m := stage.NewMachine(root, vars, nil)
	require.Nil(t, m.Active())

	require.NoError(t, leaf.Reset())
	assert.Equal(t, []string{"B", "A"}, vars.resets)
	assert.Equal(t, "Leaf", m.Active().Title())
}
