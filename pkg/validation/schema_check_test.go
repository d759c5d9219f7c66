package validation

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/registry"
)

func TestCheckSchema(t *testing.T) {
	t.Parallel()

	mustProps := func(ft model.FieldType, values map[string]any) model.Props {
		t.Helper()
		props, err := model.PropsFromMap(ft, values)
		if err != nil {
			t.Fatalf("props from map: %v", err)
		}
		return props
	}

	schema := model.FormSchema{
		Steps: []model.FormStep{model.DefaultStep()},
		Components: []model.Component{
			{ID: "a", Type: model.FieldTypeText, StepID: model.DefaultStepID, Props: mustProps(model.FieldTypeText, map[string]any{
				"label": "A", "name": "dup", "pattern": "([",
			})},
			{ID: "b", Type: model.FieldTypeSelect, StepID: model.DefaultStepID, Order: 1, Props: mustProps(model.FieldTypeSelect, map[string]any{
				"label": "B", "name": "dup", "options": []any{},
				"visibilityRule": map[string]any{
					"action": "show", "match": "all",
					"conditions": []any{map[string]any{"sourceComponentId": "ghost", "operator": "equals", "value": "x"}},
				},
			})},
			{ID: "c", Type: "signature", StepID: "nowhere", Order: 2, Props: mustProps("signature", map[string]any{"label": "C", "name": "c"})},
		},
	}

	got := CheckSchema(schema, registry.NewWithBuiltins())
	want := SchemaValidationResult{
		Valid: false,
		Issues: []SchemaIssue{
			{Path: "components/a/props", Field: "dup", Message: `invalid pattern "(["`},
			{Path: "components/b/props", Field: "dup", Message: "At least one option is required"},
			{Path: "components/b/props/name", Field: "dup", Message: `field name "dup" already used by component "a"`},
			{Path: "components/b/props/visibilityRule", Field: "dup", Message: `condition 0: unknown source component "ghost"`},
			{Path: "components/c/type", Field: "c", Message: `unknown field type "signature"`},
			{Path: "components/c/stepId", Field: "c", Message: `unknown step "nowhere"`},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("check mismatch (-want +got):\n%s", diff)
	}

	clean := model.FormSchema{
		Steps: []model.FormStep{model.DefaultStep()},
		Components: []model.Component{
			{ID: "a", Type: model.FieldTypeText, StepID: model.DefaultStepID, Props: mustProps(model.FieldTypeText, map[string]any{"label": "A", "name": "a"})},
		},
	}
	if res := CheckSchema(clean, registry.NewWithBuiltins()); !res.Valid {
		t.Fatalf("expected clean schema, got %+v", res.Issues)
	}
}

func TestCheckSchema_ReportsMisfitProps(t *testing.T) {
	t.Parallel()

	props, err := model.PropsFromMap(model.FieldTypeText, map[string]any{
		"label": "A", "name": "a", "minLength": "5", "maxLength": 3.5, "custom": true,
	})
	if err != nil {
		t.Fatalf("props from map: %v", err)
	}
	schema := model.FormSchema{
		Steps:      []model.FormStep{model.DefaultStep()},
		Components: []model.Component{{ID: "a", Type: model.FieldTypeText, StepID: model.DefaultStepID, Props: props}},
	}

	got := CheckSchema(schema, registry.NewWithBuiltins())
	want := SchemaValidationResult{
		Valid: false,
		Issues: []SchemaIssue{
			{Path: "components/a/props/maxLength", Field: "a", Message: `value of "maxLength" has the wrong type and is ignored`},
			{Path: "components/a/props/minLength", Field: "a", Message: `value of "minLength" has the wrong type and is ignored`},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("check mismatch (-want +got):\n%s", diff)
	}
}
