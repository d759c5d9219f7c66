// Package validation checks live field values against a component's
// configuration. Every function is total: malformed rules never panic and
// never return errors, they either pass or report a message.
package validation

import (
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-formbuilder/internal/coerce"
	"github.com/goliatone/go-formbuilder/pkg/model"
)

// Default messages reported when a rule carries no message of its own.
const (
	MessageRequired = "This field is required"
	MessagePattern  = "Invalid format"
)

// Result is the outcome of a check. Valid is true iff Errors is empty.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func pass() Result { return Result{Valid: true, Errors: []string{}} }

func fail(messages ...string) Result {
	return Result{Valid: false, Errors: messages}
}

// ValidateRequired fails for nil, the empty string and empty lists.
func ValidateRequired(value any) Result {
	if isMissing(value) {
		return fail(MessageRequired)
	}
	return pass()
}

// ValidateMinLength fails when a string value has fewer than min characters.
// Non-string values pass.
func ValidateMinLength(value any, min float64) Result {
	s, ok := value.(string)
	if !ok {
		return pass()
	}
	if float64(utf8.RuneCountInString(s)) < min {
		return fail(fmt.Sprintf("Minimum length is %s characters", coerce.FormatNumber(min)))
	}
	return pass()
}

// ValidateMaxLength fails when a string value has more than max characters.
// Non-string values pass.
func ValidateMaxLength(value any, max float64) Result {
	s, ok := value.(string)
	if !ok {
		return pass()
	}
	if float64(utf8.RuneCountInString(s)) > max {
		return fail(fmt.Sprintf("Maximum length is %s characters", coerce.FormatNumber(max)))
	}
	return pass()
}

// ValidateNumber checks numeric bounds. Nil bounds are skipped and
// non-numeric values pass.
func ValidateNumber(value any, min, max *float64) Result {
	if !coerce.IsNumber(value) {
		return pass()
	}
	n, ok := coerce.Number(value)
	if !ok {
		return pass()
	}
	var errs []string
	if min != nil && n < *min {
		errs = append(errs, fmt.Sprintf("Minimum value is %s", coerce.FormatNumber(*min)))
	}
	if max != nil && n > *max {
		errs = append(errs, fmt.Sprintf("Maximum value is %s", coerce.FormatNumber(*max)))
	}
	if len(errs) > 0 {
		return fail(errs...)
	}
	return pass()
}

// ValidateRule applies a single rule. min and max mean length bounds for
// strings and numeric bounds for numbers; custom and unknown kinds pass.
func ValidateRule(value any, rule model.ValidationRule) Result {
	switch rule.Kind {
	case model.RuleRequired:
		return ValidateRequired(value)
	case model.RuleMin:
		bound, ok := coerce.Number(rule.Value)
		if !ok {
			return pass()
		}
		if _, isString := value.(string); isString {
			return ValidateMinLength(value, bound)
		}
		return ValidateNumber(value, &bound, nil)
	case model.RuleMax:
		bound, ok := coerce.Number(rule.Value)
		if !ok {
			return pass()
		}
		if _, isString := value.(string); isString {
			return ValidateMaxLength(value, bound)
		}
		return ValidateNumber(value, nil, &bound)
	case model.RulePattern:
		return ValidatePattern(value, rule.Value)
	default:
		return pass()
	}
}

// ValidateRules applies every rule in order. A failing rule contributes its
// own message, or its default messages joined by ", ".
func ValidateRules(value any, rules []model.ValidationRule) Result {
	var errs []string
	for _, rule := range rules {
		res := ValidateRule(value, rule)
		if res.Valid {
			continue
		}
		if rule.Message != "" {
			errs = append(errs, rule.Message)
			continue
		}
		errs = append(errs, strings.Join(res.Errors, ", "))
	}
	if len(errs) > 0 {
		return fail(errs...)
	}
	return pass()
}

// ValidateFieldValue checks required-ness (when cfg.Required) and then every
// validation rule, accumulating all messages.
func ValidateFieldValue(cfg model.FieldConfig, value any) Result {
	var errs []string
	if cfg.Required {
		if res := ValidateRequired(value); !res.Valid {
			errs = append(errs, res.Errors...)
		}
	}
	if len(cfg.ValidationRules) > 0 {
		if res := ValidateRules(value, cfg.ValidationRules); !res.Valid {
			errs = append(errs, res.Errors...)
		}
	}
	if len(errs) > 0 {
		return fail(errs...)
	}
	return pass()
}

func isMissing(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return rv.Len() == 0
	}
	return false
}
