package outline

import (
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/registry"
	"github.com/goliatone/go-formbuilder/pkg/testsupport"
)

func outlineSchema() model.FormSchema {
	minLength := 2
	min, max := 1.0, 5.0
	return model.FormSchema{
		Steps: []model.FormStep{
			{ID: "prefs", Title: "Preferences", Order: 1},
			{ID: "about", Title: "About you", Order: 0},
			{ID: "empty", Title: "", Order: 2},
		},
		Components: []model.Component{
			{ID: "name", Type: model.FieldTypeText, StepID: "about", Order: 0, Props: model.Props{
				FieldConfig: model.FieldConfig{Label: "Name", Name: "full_name", Required: true, HelperText: "As on your ID"},
				Settings:    &model.TextSettings{MinLength: &minLength},
			}},
			{ID: "pets", Type: model.FieldTypeCheckbox, StepID: "about", Order: 1, Props: model.Props{
				FieldConfig: model.FieldConfig{Label: "Has pets"},
				Settings:    &model.CheckboxSettings{},
			}},
			{ID: "kind", Type: model.FieldTypeSelect, StepID: "about", Order: 2, Props: model.Props{
				FieldConfig: model.FieldConfig{Label: "Which pet", DefaultValue: "cat"},
				Settings:    &model.ChoiceSettings{Options: []model.Option{{Label: "Cat", Value: "cat"}, {Label: "Dog", Value: "dog"}}},
				VisibilityRule: &model.VisibilityRule{Action: model.ActionShow, Match: model.MatchAll, Conditions: []model.VisibilityCondition{
					{SourceComponentID: "pets", Operator: model.OpIsChecked},
				}},
			}},
			{ID: "rating", Type: model.FieldTypeSlider, StepID: "prefs", Order: 0, Props: model.Props{
				FieldConfig: model.FieldConfig{Label: "Rating", Name: "rating", ValidationRules: []model.ValidationRule{
					{Kind: model.RuleMin, Value: 2.0, Message: "Too low"},
				}},
				Settings: &model.SliderSettings{Min: &min, Max: &max},
				VisibilityRule: &model.VisibilityRule{Action: model.ActionHide, Match: model.MatchAny, Conditions: []model.VisibilityCondition{
					{SourceComponentID: "name", Operator: model.OpEquals, Value: "Bot"},
					{SourceComponentID: "ghost", Operator: model.OpIsEmpty},
				}},
			}},
		},
	}
}

func TestRenderer_Text(t *testing.T) {
	t.Parallel()

	renderer, err := New(WithTitle("Signup"), WithRegistry(registry.NewWithBuiltins()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := renderer.Render(outlineSchema(), FormatText)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	want := strings.Join([]string{
		"Signup",
		"3 steps, 4 fields",
		"",
		"1. About you [about]",
		"   - Name * (Text Input, name: full_name)",
		"       help: As on your ID",
		"       min length: 2",
		"   - Has pets (Checkbox, name: pets)",
		"   - Which pet (Select, name: kind)",
		"       default: cat",
		"       options: Cat (cat), Dog (dog)",
		"       show when all: Has pets is checked",
		"",
		"2. Preferences [prefs]",
		"   - Rating (Slider/Rating, name: rating)",
		"       range: 1 to 5",
		`       rule: min 2 ("Too low")`,
		"       hide when any: Name equals Bot; ghost is empty",
		"",
		"3. empty [empty]",
		"   (no fields)",
	}, "\n")
	if diff := cmp.Diff(want, strings.TrimSpace(got)); diff != "" {
		t.Fatalf("outline mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderer_Markdown(t *testing.T) {
	t.Parallel()

	renderer, err := New(WithTitle("Signup"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, written := testsupport.CaptureOutput(t, func(w io.Writer) (string, error) {
		return renderer.Render(outlineSchema(), FormatMarkdown, w)
	})
	if got != written {
		t.Fatalf("writer did not receive the rendered output")
	}
	for _, fragment := range []string{
		"# Signup",
		"## 1. About you",
		"- **Name** (required): Text Input `full_name`",
		"  - min length: 2",
		"_No fields._",
	} {
		if !strings.Contains(got, fragment) {
			t.Fatalf("expected %q in:\n%s", fragment, got)
		}
	}
}

func TestRenderer_UnknownTypeFallsBackToTypeName(t *testing.T) {
	t.Parallel()

	schema := model.FormSchema{
		Steps:      []model.FormStep{model.DefaultStep()},
		Components: []model.Component{{ID: "x", Type: "signature", StepID: model.DefaultStepID}},
	}
	got, err := Render(schema, registry.New())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(got, "   - x (signature, name: x)") {
		t.Fatalf("unexpected outline:\n%s", got)
	}
	if !strings.Contains(got, "1 step, 1 field") {
		t.Fatalf("expected singular summary:\n%s", got)
	}
}

func TestRenderer_CustomTemplatesAndErrors(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"outline.tpl":  {Data: []byte(`{{ title|trim }}:{% for step in steps %} {{ step.ID }}{% endfor %}`)},
		"markdown.tpl": {Data: []byte(`{{ "is_not_empty"|humanize_operator }}`)},
	}
	renderer, err := New(WithTemplates(files), WithTitle("Custom"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := renderer.Render(outlineSchema(), "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Custom: about prefs empty" {
		t.Fatalf("unexpected custom output %q", got)
	}
	got, err = renderer.Render(outlineSchema(), FormatMarkdown)
	if err != nil {
		t.Fatalf("render markdown: %v", err)
	}
	if got != "is not empty" {
		t.Fatalf("unexpected filter output %q", got)
	}

	if _, err := renderer.Render(outlineSchema(), "html"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	var nilRenderer *Renderer
	if _, err := nilRenderer.Render(outlineSchema(), FormatText); err == nil {
		t.Fatalf("expected nil renderer error")
	}
}

func TestRender_FixtureGolden(t *testing.T) {
	t.Parallel()

	form := testsupport.LoadSchema(t, "../schema/testdata/v2.json")
	got, err := Render(form, registry.NewWithBuiltins())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	golden := "testdata/v2.golden.txt"
	if testsupport.WriteMaybeGolden(t, golden, []byte(got)) {
		return
	}
	want := testsupport.MustReadGoldenString(t, golden)
	if diff := testsupport.CompareGolden(strings.TrimSpace(want), strings.TrimSpace(got)); diff != "" {
		t.Fatalf("golden mismatch (-want +got):\n%s", diff)
	}
}
