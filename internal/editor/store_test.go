package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func threeStages() []Stage {
	return []Stage{
		{ID: "s1", Name: "Intro", Type: StageIntro, Order: 0},
		{ID: "s2", Name: "Q1", Type: StageQuestion, Order: 1, Components: []Component{
			{ID: "c1", Type: "heading", Order: 0},
			{ID: "c2", Type: "options-grid", Order: 1},
		}},
		{ID: "s3", Name: "Result", Type: StageResult, Order: 2},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.Replace(threeStages()))
	return s
}

func assertDenseOrder(t *testing.T, stages []Stage) {
	t.Helper()
	for i, st := range stages {
		assert.Equal(t, i, st.Order, "stage %s order not dense", st.ID)
		assertComponentsDense(t, st)
	}
}

func assertComponentsDense(t *testing.T, st Stage) {
	t.Helper()
	for j, c := range st.Components {
		assert.Equal(t, j, c.Order, "component %s order not dense", c.ID)
		assert.Equal(t, st.ID, c.StageID, "component %s stage backref", c.ID)
	}
}

func TestAddStageToEmptyTreeBecomesActive(t *testing.T) {
	s := NewStore()
	st, ok := s.AddStage(Stage{ID: "s1", Type: StageIntro})
	require.True(t, ok)
	assert.Equal(t, "s1", st.ID)
	assert.Equal(t, "s1", s.ActiveStageID())
}

func TestAddStageGeneratesID(t *testing.T) {
	s := NewStore()
	st, ok := s.AddStage(Stage{Type: StageIntro})
	require.True(t, ok)
	assert.NotEmpty(t, st.ID)
}

func TestAddStageDuplicateIDNotApplied(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.AddStage(Stage{ID: "s1"})
	assert.False(t, ok)
	assert.Len(t, s.Stages(), 3)
}

func TestAddStageOrderCollisionLandsAfter(t *testing.T) {
	s := newTestStore(t)
	// Order 1 collides with s2; the new stage lands after it.
	_, ok := s.AddStage(Stage{ID: "s4", Order: 1})
	require.True(t, ok)

	stages := s.Stages()
	require.Len(t, stages, 4)
	assert.Equal(t, []string{"s1", "s2", "s4", "s3"},
		[]string{stages[0].ID, stages[1].ID, stages[2].ID, stages[3].ID})
	assertDenseOrder(t, stages)
}

func TestAddStageAtEnd(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.AddStage(Stage{ID: "s4", Order: 99})
	require.True(t, ok)
	stages := s.Stages()
	assert.Equal(t, "s4", stages[3].ID)
	assertDenseOrder(t, stages)
}

func TestUpdateStageShallowMergesSettings(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.UpdateStage("s1", StagePatch{
		Settings: map[string]any{"show_progress": true},
	}))
	require.True(t, s.UpdateStage("s1", StagePatch{
		Name:     ptr("Welcome"),
		Settings: map[string]any{"background": "#fff"},
	}))

	st, ok := s.Stage("s1")
	require.True(t, ok)
	assert.Equal(t, "Welcome", st.Name)
	assert.Equal(t, true, st.Settings["show_progress"])
	assert.Equal(t, "#fff", st.Settings["background"])
}

func TestUpdateStageMissingNotApplied(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.UpdateStage("nope", StagePatch{Name: ptr("x")}))
}

func TestUpdateStageDoesNotMutateSnapshots(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.UpdateStage("s1", StagePatch{Settings: map[string]any{"a": 1}}))
	before, _ := s.Stage("s1")

	require.True(t, s.UpdateStage("s1", StagePatch{Settings: map[string]any{"a": 2}}))

	assert.Equal(t, 1, before.Settings["a"], "earlier snapshot changed by later patch")
}

func TestDeleteStageActiveFallsBackToFirst(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.SetActiveStage("s2"))
	require.True(t, s.DeleteStage("s2"))

	assert.Equal(t, "s1", s.ActiveStageID())
	stages := s.Stages()
	require.Len(t, stages, 2)
	assertDenseOrder(t, stages)
}

func TestDeleteLastStageClearsActive(t *testing.T) {
	s := NewStore()
	s.AddStage(Stage{ID: "only"})
	require.True(t, s.DeleteStage("only"))
	assert.Empty(t, s.ActiveStageID())
	assert.Empty(t, s.Stages())
}

func TestDeleteStageClearsSelectionOfItsComponents(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.SelectComponent("c1"))
	require.True(t, s.DeleteStage("s2"))

	sel := s.Selection()
	assert.Equal(t, FocusNone, sel.Focus)
	assert.Empty(t, sel.ComponentID)
}

func TestDeleteStageReleasesComponentIDs(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.DeleteStage("s2"))
	// c1 was owned by the deleted stage; the ID is free again.
	_, ok := s.AddComponent("s1", Component{ID: "c1", Type: "text"}, nil)
	assert.True(t, ok)
}

func TestDeleteStageMissingNotApplied(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.DeleteStage("ghost"))
	assert.Len(t, s.Stages(), 3)
}

func TestMoveStageClampsTarget(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.MoveStage("s1", 99))
	stages := s.Stages()
	assert.Equal(t, "s1", stages[2].ID)
	assertDenseOrder(t, stages)

	require.True(t, s.MoveStage("s1", -5))
	assert.Equal(t, "s1", s.Stages()[0].ID)
}

func TestMoveStageMiddle(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.MoveStage("s3", 1))
	stages := s.Stages()
	assert.Equal(t, []string{"s1", "s3", "s2"},
		[]string{stages[0].ID, stages[1].ID, stages[2].ID})
	assertDenseOrder(t, stages)
}

func TestAddComponentAppends(t *testing.T) {
	s := newTestStore(t)
	c, ok := s.AddComponent("s2", Component{Type: "button"}, nil)
	require.True(t, ok)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, 2, c.Order)
	assert.Equal(t, "s2", c.StageID)
}

func TestAddComponentAtIndex(t *testing.T) {
	s := newTestStore(t)
	c, ok := s.AddComponent("s2", Component{ID: "c0", Type: "text"}, ptr(0))
	require.True(t, ok)
	assert.Equal(t, 0, c.Order)

	st, _ := s.Stage("s2")
	require.Len(t, st.Components, 3)
	assert.Equal(t, "c0", st.Components[0].ID)
	assertComponentsDense(t, st)
}

func TestAddComponentDuplicateIDAnywhereNotApplied(t *testing.T) {
	s := newTestStore(t)
	// c1 lives in s2; adding it to s1 must be rejected.
	_, ok := s.AddComponent("s1", Component{ID: "c1", Type: "text"}, nil)
	assert.False(t, ok)
}

func TestAddComponentMissingStageNotApplied(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.AddComponent("ghost", Component{Type: "text"}, nil)
	assert.False(t, ok)
}

func TestUpdateComponentMergesBags(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.UpdateComponent("s2", "c1", ComponentPatch{
		Content: map[string]any{"text": "Hello"},
	}))
	require.True(t, s.UpdateComponent("s2", "c1", ComponentPatch{
		Content: map[string]any{"size": "xl"},
		Style:   map[string]any{"color": "#333"},
	}))

	st, _ := s.Stage("s2")
	c := st.Components[0]
	assert.Equal(t, "Hello", c.Content["text"])
	assert.Equal(t, "xl", c.Content["size"])
	assert.Equal(t, "#333", c.Style["color"])
}

func TestUpdateComponentProducesFreshMaps(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.UpdateComponent("s2", "c1", ComponentPatch{
		Content: map[string]any{"v": 1},
	}))
	st, _ := s.Stage("s2")
	before := st.Components[0].Content

	require.True(t, s.UpdateComponent("s2", "c1", ComponentPatch{
		Content: map[string]any{"v": 2},
	}))
	assert.Equal(t, 1, before["v"])
}

func TestUpdateComponentWrongStageNotApplied(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.UpdateComponent("s1", "c1", ComponentPatch{Type: ptr("text")}))
}

func TestDeleteComponentResequencesAndClearsSelection(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.SelectComponent("c1"))
	require.True(t, s.DeleteComponent("s2", "c1"))

	st, _ := s.Stage("s2")
	require.Len(t, st.Components, 1)
	assert.Equal(t, "c2", st.Components[0].ID)
	assert.Equal(t, 0, st.Components[0].Order)
	assert.Equal(t, FocusNone, s.Selection().Focus)
}

func TestMoveComponentAcrossStages(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.MoveComponent("c1", "s3", 0))

	src, _ := s.Stage("s2")
	dst, _ := s.Stage("s3")
	require.Len(t, src.Components, 1)
	require.Len(t, dst.Components, 1)
	assert.Equal(t, "c1", dst.Components[0].ID)
	assert.Equal(t, "s3", dst.Components[0].StageID)
	assertDenseOrder(t, s.Stages())
}

func TestMoveComponentWithinStageClamped(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.MoveComponent("c1", "s2", 99))
	st, _ := s.Stage("s2")
	assert.Equal(t, "c1", st.Components[1].ID)
	assertComponentsDense(t, st)
}

func TestMoveComponentUnknownNotApplied(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.MoveComponent("ghost", "s3", 0))
	assert.False(t, s.MoveComponent("c1", "ghost", 0))
	// Failed moves leave the tree untouched.
	st, _ := s.Stage("s2")
	assert.Len(t, st.Components, 2)
}

func TestSelectionMutuallyExclusive(t *testing.T) {
	s := newTestStore(t)

	require.True(t, s.SelectComponent("c1"))
	sel := s.Selection()
	assert.Equal(t, FocusComponent, sel.Focus)
	assert.Equal(t, "c1", sel.ComponentID)
	assert.Equal(t, "s2", sel.StageID)

	require.True(t, s.SelectStage("s1"))
	sel = s.Selection()
	assert.Equal(t, FocusStage, sel.Focus)
	assert.Empty(t, sel.ComponentID)
	assert.Equal(t, "s1", sel.StageID)
}

func TestSelectEmptyClears(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.SelectComponent("c1"))
	require.True(t, s.SelectComponent(""))
	assert.Equal(t, FocusNone, s.Selection().Focus)
}

func TestSelectUnknownNotAppliedKeepsCurrent(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.SelectComponent("c1"))
	assert.False(t, s.SelectComponent("ghost"))
	assert.False(t, s.SelectStage("ghost"))
	assert.Equal(t, "c1", s.Selection().ComponentID)
}

func TestSetActiveStage(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.SetActiveStage("s3"))
	assert.Equal(t, "s3", s.ActiveStageID())
	assert.False(t, s.SetActiveStage("ghost"))
	assert.Equal(t, "s3", s.ActiveStageID())
}

func TestReplaceSortsAndResequences(t *testing.T) {
	s := NewStore()
	err := s.Replace([]Stage{
		{ID: "b", Order: 5},
		{ID: "a", Order: 5},
		{ID: "z", Order: 1},
	})
	require.NoError(t, err)

	stages := s.Stages()
	// z first by order; a before b by ID on the tie.
	assert.Equal(t, []string{"z", "a", "b"},
		[]string{stages[0].ID, stages[1].ID, stages[2].ID})
	assertDenseOrder(t, stages)
	assert.Equal(t, "z", s.ActiveStageID())
	assert.Equal(t, FocusNone, s.Selection().Focus)
}

func TestReplaceRejectsDuplicateStageID(t *testing.T) {
	s := newTestStore(t)
	err := s.Replace([]Stage{{ID: "x"}, {ID: "x"}})
	require.Error(t, err)
	// Failed replace leaves the old tree intact.
	assert.Len(t, s.Stages(), 3)
}

func TestReplaceRejectsDuplicateComponentIDAcrossStages(t *testing.T) {
	s := NewStore()
	err := s.Replace([]Stage{
		{ID: "a", Components: []Component{{ID: "c", Type: "text"}}},
		{ID: "b", Components: []Component{{ID: "c", Type: "text"}}},
	})
	assert.Error(t, err)
}

func TestReplaceRejectsMismatchedBackref(t *testing.T) {
	s := NewStore()
	err := s.Replace([]Stage{
		{ID: "a", Components: []Component{{ID: "c", Type: "text", StageID: "other"}}},
	})
	assert.Error(t, err)
}

func TestReplaceEmptyTree(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Replace(nil))
	assert.Empty(t, s.Stages())
	assert.Empty(t, s.ActiveStageID())
}

func TestStagesReturnsDeepCopy(t *testing.T) {
	s := newTestStore(t)
	stages := s.Stages()
	stages[1].Components[0].Type = "mutated"

	st, _ := s.Stage("s2")
	assert.Equal(t, "heading", st.Components[0].Type)
}

func TestStageTypeValid(t *testing.T) {
	for _, st := range []StageType{StageIntro, StageQuestion, StageTransition, StageResult, StageOffer} {
		assert.True(t, st.Valid(), "%s should be valid", st)
	}
	assert.False(t, StageType("banner").Valid())
	assert.False(t, StageType("").Valid())
}
