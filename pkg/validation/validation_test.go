package validation

import (
	"regexp"
	"testing"

	"github.com/dlclark/regexp2"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

func TestValidateRequired(t *testing.T) {
	t.Parallel()

	for _, value := range []any{nil, "", []any{}, []string{}} {
		if res := ValidateRequired(value); res.Valid || res.Errors[0] != MessageRequired {
			t.Fatalf("expected %#v to be missing, got %+v", value, res)
		}
	}
	for _, value := range []any{" ", 0, false, []any{"a"}} {
		if res := ValidateRequired(value); !res.Valid {
			t.Fatalf("expected %#v to satisfy required, got %+v", value, res)
		}
	}
}

func TestValidateRule(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		value any
		rule  model.ValidationRule
		want  Result
	}{
		{name: "min length fails", value: "ab", rule: model.ValidationRule{Kind: model.RuleMin, Value: 3}, want: Result{Errors: []string{"Minimum length is 3 characters"}}},
		{name: "min length counts runes", value: "ééé", rule: model.ValidationRule{Kind: model.RuleMin, Value: 3}, want: Result{Valid: true, Errors: []string{}}},
		{name: "max length fails", value: "abcd", rule: model.ValidationRule{Kind: model.RuleMax, Value: 3.0}, want: Result{Errors: []string{"Maximum length is 3 characters"}}},
		{name: "min number fails", value: 2.0, rule: model.ValidationRule{Kind: model.RuleMin, Value: 5}, want: Result{Errors: []string{"Minimum value is 5"}}},
		{name: "max number fails", value: 12, rule: model.ValidationRule{Kind: model.RuleMax, Value: 10.5}, want: Result{Errors: []string{"Maximum value is 10.5"}}},
		{name: "min ignores bools", value: true, rule: model.ValidationRule{Kind: model.RuleMin, Value: 5}, want: Result{Valid: true, Errors: []string{}}},
		{name: "min with bad bound passes", value: "a", rule: model.ValidationRule{Kind: model.RuleMin, Value: "lots"}, want: Result{Valid: true, Errors: []string{}}},
		{name: "pattern fails", value: "abc", rule: model.ValidationRule{Kind: model.RulePattern, Value: `^\d+$`}, want: Result{Errors: []string{MessagePattern}}},
		{name: "pattern passes", value: "123", rule: model.ValidationRule{Kind: model.RulePattern, Value: `^\d+$`}, want: Result{Valid: true, Errors: []string{}}},
		{name: "pattern ignores numbers", value: 12, rule: model.ValidationRule{Kind: model.RulePattern, Value: `^[a-z]+$`}, want: Result{Valid: true, Errors: []string{}}},
		{name: "pattern with lookahead", value: "abc1", rule: model.ValidationRule{Kind: model.RulePattern, Value: `^(?=.*\d).+$`}, want: Result{Valid: true, Errors: []string{}}},
		{name: "invalid pattern reports format", value: "abc", rule: model.ValidationRule{Kind: model.RulePattern, Value: `([`}, want: Result{Errors: []string{MessagePattern}}},
		{name: "custom passes", value: "", rule: model.ValidationRule{Kind: model.RuleCustom}, want: Result{Valid: true, Errors: []string{}}},
		{name: "unknown passes", value: "", rule: model.ValidationRule{Kind: "email"}, want: Result{Valid: true, Errors: []string{}}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ValidateRule(tc.value, tc.rule)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidatePattern_Compiled(t *testing.T) {
	t.Parallel()

	if res := ValidatePattern("abc", regexp.MustCompile(`^a`)); !res.Valid {
		t.Fatalf("expected compiled stdlib pattern to match")
	}
	if res := ValidatePattern("xbc", regexp2.MustCompile(`^a`, regexp2.ECMAScript)); res.Valid {
		t.Fatalf("expected compiled regexp2 pattern to reject")
	}
}

func TestValidateNumber_BothBounds(t *testing.T) {
	t.Parallel()

	min, max := 10.0, 5.0
	got := ValidateNumber(7, &min, &max)
	want := Result{Errors: []string{"Minimum value is 10", "Maximum value is 5"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateRules_MessageOverrides(t *testing.T) {
	t.Parallel()

	rules := []model.ValidationRule{
		{Kind: model.RuleMin, Value: 3, Message: "Too short"},
		{Kind: model.RulePattern, Value: `^\d+$`},
	}
	got := ValidateRules("ab", rules)
	want := Result{Errors: []string{"Too short", MessagePattern}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateFieldValue(t *testing.T) {
	t.Parallel()

	cfg := model.FieldConfig{
		Label:    "Code",
		Name:     "code",
		Required: true,
		ValidationRules: []model.ValidationRule{
			{Kind: model.RuleRequired},
			{Kind: model.RuleMin, Value: 2},
		},
	}

	got := ValidateFieldValue(cfg, "")
	want := Result{Errors: []string{MessageRequired, MessageRequired, "Minimum length is 2 characters"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}

	if res := ValidateFieldValue(cfg, "ok"); !res.Valid || len(res.Errors) != 0 {
		t.Fatalf("expected valid result, got %+v", res)
	}

	if res := ValidateFieldValue(model.FieldConfig{}, nil); !res.Valid {
		t.Fatalf("expected optional empty field to be valid, got %+v", res)
	}
}

func TestEffectiveRulesAndValidateProps(t *testing.T) {
	t.Parallel()

	props, err := model.PropsFromMap(model.FieldTypeText, map[string]any{
		"label":     "Handle",
		"name":      "handle",
		"required":  true,
		"minLength": 3,
		"pattern":   "^[a-z]+$",
		"validationRules": []any{
			map[string]any{"type": "required"},
		},
	})
	if err != nil {
		t.Fatalf("props from map: %v", err)
	}

	rules := EffectiveRules(props)
	kinds := make([]model.RuleKind, 0, len(rules))
	for _, rule := range rules {
		kinds = append(kinds, rule.Kind)
	}
	if diff := cmp.Diff([]model.RuleKind{model.RuleRequired, model.RuleMin, model.RulePattern}, kinds); diff != "" {
		t.Fatalf("rule kinds mismatch (-want +got):\n%s", diff)
	}

	got := ValidateProps(props, "")
	want := Result{Errors: []string{MessageRequired, "Minimum length is 3 characters", MessagePattern}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}

	slider, err := model.PropsFromMap(model.FieldTypeSlider, map[string]any{"label": "S", "name": "s", "min": 1, "max": 5})
	if err != nil {
		t.Fatalf("props from map: %v", err)
	}
	if res := ValidateProps(slider, 9.0); res.Valid || res.Errors[0] != "Maximum value is 5" {
		t.Fatalf("expected slider bound failure, got %+v", res)
	}
}
