package store

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/schema"
)

func textField(id string) model.Component {
	return model.Component{
		ID:   id,
		Type: model.FieldTypeText,
		Props: model.Props{
			FieldConfig: model.FieldConfig{Label: "Label " + id, Name: id},
			Settings:    &model.TextSettings{},
		},
	}
}

type placement struct {
	ID     string
	StepID string
	Order  int
}

func placements(s model.FormSchema) []placement {
	out := make([]placement, 0, len(s.Components))
	for _, comp := range s.Components {
		out = append(out, placement{ID: comp.ID, StepID: comp.StepID, Order: comp.Order})
	}
	return out
}

func TestNew_InitialState(t *testing.T) {
	t.Parallel()

	s := New()
	got := s.Present()
	want := model.FormSchema{Steps: []model.FormStep{model.DefaultStep()}, Components: []model.Component{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("initial schema mismatch (-want +got):\n%s", diff)
	}
	if s.CanUndo() || s.CanRedo() {
		t.Fatalf("expected empty history")
	}
	if diff := cmp.Diff(Selection{StepID: model.DefaultStepID}, s.Selection()); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_EndToEndScenario(t *testing.T) {
	t.Parallel()

	t.Run("insert at index", func(t *testing.T) {
		t.Parallel()
		s := New()
		require.True(t, s.AddComponent(textField("a"), nil))
		require.True(t, s.AddComponentAt(textField("b"), 0))

		want := []placement{
			{ID: "b", StepID: model.DefaultStepID, Order: 0},
			{ID: "a", StepID: model.DefaultStepID, Order: 1},
		}
		if diff := cmp.Diff(want, placements(s.Present())); diff != "" {
			t.Fatalf("placements mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("reorder then undo three times", func(t *testing.T) {
		t.Parallel()
		s := New()
		initial := s.Present()

		require.True(t, s.AddComponent(textField("a"), nil))
		require.True(t, s.AddComponent(textField("b"), nil))
		require.True(t, s.ReorderComponents("a", "b"))

		want := []placement{
			{ID: "b", StepID: model.DefaultStepID, Order: 0},
			{ID: "a", StepID: model.DefaultStepID, Order: 1},
		}
		if diff := cmp.Diff(want, placements(s.Present())); diff != "" {
			t.Fatalf("placements mismatch (-want +got):\n%s", diff)
		}

		for i := 0; i < 3; i++ {
			require.True(t, s.Undo(), "undo %d", i)
		}
		if diff := cmp.Diff(initial, s.Present()); diff != "" {
			t.Fatalf("undo did not restore initial schema (-want +got):\n%s", diff)
		}
		require.False(t, s.Undo())
		require.Equal(t, 3, s.FutureLen())
	})
}

func TestStore_UndoRedoInverse(t *testing.T) {
	t.Parallel()

	s := New()
	title := "Details"
	commands := []func() bool{
		func() bool { return s.AddComponent(textField("a"), nil) },
		func() bool { return s.AddStep(model.FormStep{ID: "details", Title: "Second"}) },
		func() bool { return s.UpdateStep("details", StepUpdate{Title: &title}) },
		func() bool {
			step := "details"
			return s.UpdateComponent("a", ComponentUpdate{StepID: &step})
		},
		func() bool { return s.AddComponentAt(textField("b"), 0) },
		func() bool { return s.RemoveStep(model.DefaultStepID) },
	}

	var before, after []model.FormSchema
	for idx, cmd := range commands {
		before = append(before, s.Present())
		require.True(t, cmd(), "command %d", idx)
		after = append(after, s.Present())
	}

	for idx := len(commands) - 1; idx >= 0; idx-- {
		require.True(t, s.Undo())
		if diff := cmp.Diff(before[idx], s.Present()); diff != "" {
			t.Fatalf("undo of command %d mismatch (-want +got):\n%s", idx, diff)
		}
	}
	for idx := range commands {
		require.True(t, s.Redo())
		if diff := cmp.Diff(after[idx], s.Present()); diff != "" {
			t.Fatalf("redo of command %d mismatch (-want +got):\n%s", idx, diff)
		}
	}
	require.False(t, s.Redo())
}

func TestStore_CommitAfterUndoDiscardsFuture(t *testing.T) {
	t.Parallel()

	s := New()
	s.AddComponent(textField("a"), nil)
	s.AddComponent(textField("b"), nil)
	require.True(t, s.Undo())
	require.True(t, s.CanRedo())

	require.True(t, s.AddComponent(textField("c"), nil))
	require.False(t, s.CanRedo())
	require.False(t, s.Redo())

	ids := []string{}
	for _, comp := range s.Present().Components {
		ids = append(ids, comp.ID)
	}
	if diff := cmp.Diff([]string{"a", "c"}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_NoOpCommands(t *testing.T) {
	t.Parallel()

	s := New()
	s.AddStep(model.FormStep{ID: "two", Title: "Two"})
	s.AddComponent(model.Component{ID: "a", Type: model.FieldTypeText, StepID: model.DefaultStepID}, nil)
	s.AddComponent(model.Component{ID: "b", Type: model.FieldTypeText, StepID: "two"}, nil)
	snapshot := s.Present()
	pastLen := s.PastLen()

	ghost := "ghost"
	noops := map[string]func() bool{
		"remove unknown step":       func() bool { return s.RemoveStep("ghost") },
		"remove unknown component":  func() bool { return s.RemoveComponent("ghost") },
		"add duplicate step":        func() bool { return s.AddStep(model.FormStep{ID: "two"}) },
		"add blank step":            func() bool { return s.AddStep(model.FormStep{ID: " "}) },
		"add duplicate component":   func() bool { return s.AddComponent(textField("a"), nil) },
		"add blank component":       func() bool { return s.AddComponent(model.Component{}, nil) },
		"reorder across steps":      func() bool { return s.ReorderComponents("a", "b") },
		"reorder onto itself":       func() bool { return s.ReorderComponents("a", "a") },
		"reorder unknown":           func() bool { return s.ReorderComponents("a", "ghost") },
		"update unknown component":  func() bool { return s.UpdateComponent("ghost", ComponentUpdate{Props: map[string]any{"label": "x"}}) },
		"update to unknown step":    func() bool { return s.UpdateComponent("a", ComponentUpdate{StepID: &ghost}) },
		"update without changes":    func() bool { return s.UpdateComponent("a", ComponentUpdate{}) },
		"update unknown step":       func() bool { return s.UpdateStep("ghost", StepUpdate{Title: &ghost}) },
		"update step without field": func() bool { return s.UpdateStep("two", StepUpdate{}) },
		"redo with empty future":    s.Redo,
	}
	for name, cmd := range noops {
		if cmd() {
			t.Fatalf("%s: expected no-op", name)
		}
	}

	if diff := cmp.Diff(snapshot, s.Present()); diff != "" {
		t.Fatalf("no-op commands changed the schema (-want +got):\n%s", diff)
	}
	require.Equal(t, pastLen, s.PastLen())

	s.RemoveStep("two")
	require.False(t, s.RemoveStep(model.DefaultStepID), "last step must not be removable")
}

func TestStore_RemoveStepMovesComponentsToFirstStep(t *testing.T) {
	t.Parallel()

	s := New()
	s.AddStep(model.FormStep{ID: "two", Title: "Two"})
	s.AddComponent(model.Component{ID: "a", StepID: model.DefaultStepID}, nil)
	s.AddComponent(model.Component{ID: "b", StepID: "two"}, nil)
	s.AddComponent(model.Component{ID: "c", StepID: "two"}, nil)
	require.True(t, s.SelectStep(model.DefaultStepID))

	require.True(t, s.RemoveStep(model.DefaultStepID))

	got := s.Present()
	want := []placement{
		{ID: "b", StepID: "two", Order: 0},
		{ID: "c", StepID: "two", Order: 1},
		{ID: "a", StepID: "two", Order: 2},
	}
	if diff := cmp.Diff(want, placements(got)); diff != "" {
		t.Fatalf("placements mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]model.FormStep{{ID: "two", Title: "Two", Order: 0}}, got.Steps); diff != "" {
		t.Fatalf("steps mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "two", s.Selection().StepID)
}

func TestStore_UpdateStepOrderMovesStep(t *testing.T) {
	t.Parallel()

	s := New()
	s.AddStep(model.FormStep{ID: "two", Title: "Two"})
	s.AddStep(model.FormStep{ID: "three", Title: "Three"})

	first := 0
	require.True(t, s.UpdateStep("three", StepUpdate{Order: &first}))

	var ids []string
	for _, step := range s.Present().Steps {
		ids = append(ids, fmt.Sprintf("%s@%d", step.ID, step.Order))
	}
	if diff := cmp.Diff([]string{"three@0", "step_1@1", "two@2"}, ids); diff != "" {
		t.Fatalf("step order mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_UpdateComponentMergesProps(t *testing.T) {
	t.Parallel()

	s := New()
	comp := textField("a")
	comp.Props.Placeholder = "Your name"
	minLength := 2
	comp.Props.Settings = &model.TextSettings{MinLength: &minLength}
	comp.Props.Extra = map[string]any{"data": map[string]any{"x": 1.0, "y": 2.0}}
	s.AddComponent(comp, nil)

	require.True(t, s.UpdateComponent("a", ComponentUpdate{Props: map[string]any{
		"label":       "Full name",
		"placeholder": nil,
		"data":        map[string]any{"y": 3.0},
	}}))

	got, ok := s.Present().Component("a")
	require.True(t, ok)
	require.Equal(t, "Full name", got.Props.Label)
	require.Equal(t, "a", got.Props.Name)
	require.Empty(t, got.Props.Placeholder)

	text, ok := got.Props.Text()
	require.True(t, ok)
	require.NotNil(t, text.MinLength)
	require.Equal(t, 2, *text.MinLength)

	if diff := cmp.Diff(map[string]any{"x": 1.0, "y": 3.0}, got.Props.Extra["data"]); diff != "" {
		t.Fatalf("nested extra mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_UpdateComponentKeepsMisfitPropsVerbatim(t *testing.T) {
	t.Parallel()

	s := New()
	comp := textField("a")
	minLength := 2
	comp.Props.Settings = &model.TextSettings{MinLength: &minLength}
	s.AddComponent(comp, nil)

	require.True(t, s.UpdateComponent("a", ComponentUpdate{Props: map[string]any{"minLength": "5"}}))
	got, ok := s.Present().Component("a")
	require.True(t, ok)
	text, ok := got.Props.Text()
	require.True(t, ok)
	require.Nil(t, text.MinLength)
	require.Equal(t, map[string]any{"minLength": "5"}, got.Props.Extra)

	values, err := got.Props.ToMap()
	require.NoError(t, err)
	require.Equal(t, "5", values["minLength"])

	require.True(t, s.UpdateComponent("a", ComponentUpdate{Props: map[string]any{"minLength": 4.0}}))
	got, _ = s.Present().Component("a")
	text, _ = got.Props.Text()
	require.NotNil(t, text.MinLength)
	require.Equal(t, 4, *text.MinLength)
	require.Nil(t, got.Props.Extra)
}

func TestStore_UpdateComponentTypeRebindsSettings(t *testing.T) {
	t.Parallel()

	s := New()
	s.AddComponent(model.Component{
		ID:    "choice",
		Type:  model.FieldTypeSelect,
		Props: model.Props{Settings: &model.ChoiceSettings{Options: []model.Option{{Label: "A", Value: "a"}}}},
	}, nil)

	radio := model.FieldTypeRadio
	require.True(t, s.UpdateComponent("choice", ComponentUpdate{Type: &radio}))

	got, _ := s.Present().Component("choice")
	require.Equal(t, model.FieldTypeRadio, got.Type)
	choice, ok := got.Props.Choice()
	require.True(t, ok)
	if diff := cmp.Diff([]model.Option{{Label: "A", Value: "a"}}, choice.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_UpdateComponentPlacement(t *testing.T) {
	t.Parallel()

	s := New()
	s.AddStep(model.FormStep{ID: "two"})
	for _, id := range []string{"a", "b", "c"} {
		s.AddComponent(model.Component{ID: id, StepID: model.DefaultStepID}, nil)
	}
	s.AddComponent(model.Component{ID: "z", StepID: "two"}, nil)

	two := "two"
	zero := 0
	require.True(t, s.UpdateComponent("a", ComponentUpdate{StepID: &two, Order: &zero}))
	last := 9
	require.True(t, s.UpdateComponent("b", ComponentUpdate{Order: &last}))

	want := []placement{
		{ID: "c", StepID: model.DefaultStepID, Order: 0},
		{ID: "b", StepID: model.DefaultStepID, Order: 1},
		{ID: "z", StepID: "two", Order: 0},
		{ID: "a", StepID: "two", Order: 1},
	}
	if diff := cmp.Diff(want, placements(s.Present())); diff != "" {
		t.Fatalf("placements mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_AddComponentTargetsSelectedStep(t *testing.T) {
	t.Parallel()

	s := New()
	s.AddStep(model.FormStep{ID: "two"})
	require.True(t, s.SelectStep("two"))
	require.False(t, s.SelectStep("ghost"))

	s.AddComponent(model.Component{ID: "a"}, nil)
	s.AddComponent(model.Component{ID: "b", StepID: "ghost"}, nil)
	s.AddComponent(model.Component{ID: "c", StepID: model.DefaultStepID}, nil)
	big := 42
	s.AddComponent(model.Component{ID: "d", StepID: "two"}, &big)

	want := []placement{
		{ID: "c", StepID: model.DefaultStepID, Order: 0},
		{ID: "a", StepID: "two", Order: 0},
		{ID: "b", StepID: "two", Order: 1},
		{ID: "d", StepID: "two", Order: 2},
	}
	if diff := cmp.Diff(want, placements(s.Present())); diff != "" {
		t.Fatalf("placements mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_SelectionFollowsHistory(t *testing.T) {
	t.Parallel()

	s := New()
	s.AddStep(model.FormStep{ID: "two"})
	s.AddComponent(model.Component{ID: "a", StepID: "two"}, nil)

	require.True(t, s.SelectComponent("a"))
	require.Equal(t, Selection{ComponentID: "a", StepID: "two"}, s.Selection())
	require.False(t, s.SelectComponent("ghost"))

	require.True(t, s.RemoveComponent("a"))
	require.Equal(t, Selection{StepID: "two"}, s.Selection())

	require.True(t, s.Undo())
	require.True(t, s.SelectComponent("a"))
	require.True(t, s.Undo())
	require.True(t, s.Undo())
	require.Equal(t, Selection{StepID: model.DefaultStepID}, s.Selection())

	require.False(t, s.SelectComponent(""))
}

func TestStore_SetAndClearSchemaResetHistory(t *testing.T) {
	t.Parallel()

	s := New()
	s.AddComponent(textField("a"), nil)
	s.AddComponent(textField("b"), nil)
	s.Undo()

	s.SetSchema(model.FormSchema{
		Steps:      []model.FormStep{{ID: "x", Title: "X", Order: 5}},
		Components: []model.Component{{ID: "q", StepID: "missing", Order: 3}},
	})
	require.False(t, s.CanUndo())
	require.False(t, s.CanRedo())
	require.True(t, schema.IsNormalized(s.Present()))
	require.Equal(t, "x", s.Selection().StepID)

	s.ClearSchema()
	if diff := cmp.Diff(New().Present(), s.Present()); diff != "" {
		t.Fatalf("clear mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, model.DefaultStepID, s.Selection().StepID)
}

func TestStore_HistoryLimit(t *testing.T) {
	t.Parallel()

	s := New(WithHistoryLimit(2))
	for _, id := range []string{"a", "b", "c", "d"} {
		s.AddComponent(textField(id), nil)
	}
	require.Equal(t, 2, s.PastLen())
	s.Undo()
	s.Undo()
	require.False(t, s.Undo())
	require.Len(t, s.Present().Components, 2)
}

func TestStore_SnapshotsAreIsolated(t *testing.T) {
	t.Parallel()

	s := New()
	s.AddComponent(textField("a"), nil)
	present := s.Present()
	present.Components[0].Props.Label = "mutated"
	present.Steps[0].Title = "mutated"

	got := s.Present()
	require.Equal(t, "Label a", got.Components[0].Props.Label)
	require.Equal(t, model.DefaultStepTitle, got.Steps[0].Title)
}

func TestStore_Subscribe(t *testing.T) {
	t.Parallel()

	s := New()
	var seen []int
	unsubscribe := s.Subscribe(func(snapshot model.FormSchema) {
		seen = append(seen, len(snapshot.Components))
	})

	s.AddComponent(textField("a"), nil)
	s.RemoveComponent("ghost")
	s.AddComponent(textField("b"), nil)
	s.Undo()
	unsubscribe()
	unsubscribe()
	s.Redo()

	if diff := cmp.Diff([]int{1, 2, 1}, seen); diff != "" {
		t.Fatalf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_WatchDeliversVersions(t *testing.T) {
	t.Parallel()

	s := New()
	var versions []uint64
	stop := s.Watch(func(c Change) {
		versions = append(versions, c.Version)
	})
	defer stop()

	s.AddComponent(textField("a"), nil)
	s.RemoveComponent("ghost")
	s.Undo()
	s.Redo()
	s.ClearSchema()

	if diff := cmp.Diff([]uint64{1, 2, 3, 4}, versions); diff != "" {
		t.Fatalf("versions mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, uint64(4), s.Version())
}

func TestStore_StateIsConsistent(t *testing.T) {
	t.Parallel()

	s := New()
	s.AddComponent(textField("a"), nil)
	s.SelectComponent("a")

	state := s.State()
	require.Len(t, state.Schema.Components, 1)
	require.Equal(t, "a", state.Selection.ComponentID)
	require.True(t, state.CanUndo)
	require.False(t, state.CanRedo)
	require.Equal(t, uint64(1), state.Version)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AddComponent(textField(fmt.Sprintf("c%d", i)), nil)
		}(i)
	}
	for i := 0; i < 50; i++ {
		st := s.State()
		require.Equal(t, int(st.Version), len(st.Schema.Components))
	}
	wg.Wait()
}

func TestStore_OrderInvariantsUnderRandomCommands(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	s := New()
	ids := func() []string {
		var out []string
		for _, comp := range s.Present().Components {
			out = append(out, comp.ID)
		}
		return out
	}
	stepIDs := func() []string {
		var out []string
		for _, step := range s.Present().Steps {
			out = append(out, step.ID)
		}
		return out
	}
	pick := func(items []string) string {
		if len(items) == 0 {
			return "none"
		}
		return items[rng.Intn(len(items))]
	}

	for i := 0; i < 400; i++ {
		switch rng.Intn(9) {
		case 0:
			s.AddStep(model.FormStep{ID: fmt.Sprintf("s%d", i)})
		case 1:
			s.RemoveStep(pick(stepIDs()))
		case 2:
			order := rng.Intn(6) - 1
			s.UpdateStep(pick(stepIDs()), StepUpdate{Order: &order})
		case 3, 4:
			idx := rng.Intn(5) - 1
			s.AddComponent(model.Component{ID: fmt.Sprintf("c%d", i), StepID: pick(stepIDs())}, &idx)
		case 5:
			s.RemoveComponent(pick(ids()))
		case 6:
			s.ReorderComponents(pick(ids()), pick(ids()))
		case 7:
			step := pick(stepIDs())
			order := rng.Intn(4)
			s.UpdateComponent(pick(ids()), ComponentUpdate{StepID: &step, Order: &order})
		case 8:
			if rng.Intn(2) == 0 {
				s.Undo()
			} else {
				s.Redo()
			}
		}

		present := s.Present()
		if !schema.IsNormalized(present) {
			t.Fatalf("iteration %d: schema not normalized: %+v", i, placements(present))
		}
		seen := map[string]bool{}
		for _, comp := range present.Components {
			if seen[comp.ID] {
				t.Fatalf("iteration %d: duplicate component %q", i, comp.ID)
			}
			seen[comp.ID] = true
		}
	}
}

func TestStore_ConcurrentCommands(t *testing.T) {
	t.Parallel()

	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AddComponent(textField(fmt.Sprintf("c%02d", i)), nil)
			_ = s.Present()
		}(i)
	}
	wg.Wait()

	present := s.Present()
	require.Len(t, present.Components, 32)
	require.True(t, schema.IsNormalized(present))
	require.Equal(t, 32, s.PastLen())
}
