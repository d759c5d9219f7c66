package validation

import (
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// EffectiveRules returns the explicit validation rules followed by the rules
// implied by typed settings: text length bounds and pattern, slider bounds.
func EffectiveRules(props model.Props) []model.ValidationRule {
	rules := append([]model.ValidationRule(nil), props.ValidationRules...)

	if text, ok := props.Text(); ok {
		if text.MinLength != nil {
			rules = append(rules, model.ValidationRule{Kind: model.RuleMin, Value: float64(*text.MinLength)})
		}
		if text.MaxLength != nil {
			rules = append(rules, model.ValidationRule{Kind: model.RuleMax, Value: float64(*text.MaxLength)})
		}
		if strings.TrimSpace(text.Pattern) != "" {
			rules = append(rules, model.ValidationRule{Kind: model.RulePattern, Value: text.Pattern})
		}
	}
	if slider, ok := props.Slider(); ok {
		if slider.Min != nil {
			rules = append(rules, model.ValidationRule{Kind: model.RuleMin, Value: *slider.Min})
		}
		if slider.Max != nil {
			rules = append(rules, model.ValidationRule{Kind: model.RuleMax, Value: *slider.Max})
		}
	}
	return rules
}

// ValidateProps validates value against the field config and its effective
// rules. Duplicate messages are reported once.
func ValidateProps(props model.Props, value any) Result {
	cfg := props.FieldConfig
	cfg.ValidationRules = EffectiveRules(props)
	res := ValidateFieldValue(cfg, value)
	if res.Valid {
		return res
	}
	messages := normalizeMessages(res.Errors)
	if len(messages) == 0 {
		messages = res.Errors
	}
	return fail(messages...)
}

func normalizeMessages(messages []string) []string {
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
