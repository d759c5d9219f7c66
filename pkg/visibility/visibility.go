// Package visibility evaluates conditional show/hide rules against the live
// values of a form. Evaluation is total: malformed conditions evaluate to
// false and never return an error. Use Inspect to surface them for logging.
package visibility

import (
	"strings"

	"github.com/goliatone/go-formbuilder/internal/coerce"
	"github.com/goliatone/go-formbuilder/pkg/model"
)

// Evaluator decides whether a component with the given rule is visible for a
// set of values keyed by component id.
type Evaluator interface {
	Visible(rule *model.VisibilityRule, values map[string]any) bool
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(rule *model.VisibilityRule, values map[string]any) bool

// Visible delegates to the underlying function.
func (fn EvaluatorFunc) Visible(rule *model.VisibilityRule, values map[string]any) bool {
	return fn(rule, values)
}

// Default is the built-in rule evaluator.
var Default Evaluator = EvaluatorFunc(Evaluate)

// Evaluate reports whether a component carrying rule is visible. A nil rule or
// a rule without conditions is visible. Any action other than "hide" behaves
// as "show"; any match other than "any" behaves as "all".
func Evaluate(rule *model.VisibilityRule, values map[string]any) bool {
	if rule == nil || len(rule.Conditions) == 0 {
		return true
	}

	var matches bool
	if rule.Match == model.MatchAny {
		for _, cond := range rule.Conditions {
			if EvaluateCondition(cond, values) {
				matches = true
				break
			}
		}
	} else {
		matches = true
		for _, cond := range rule.Conditions {
			if !EvaluateCondition(cond, values) {
				matches = false
				break
			}
		}
	}

	if rule.Action == model.ActionHide {
		return !matches
	}
	return matches
}

// EvaluateCondition looks up the source value and applies the operator. A
// condition without a source id is false.
func EvaluateCondition(cond model.VisibilityCondition, values map[string]any) bool {
	if strings.TrimSpace(cond.SourceComponentID) == "" {
		return false
	}
	return EvaluateOperator(cond.Operator, values[cond.SourceComponentID], cond.Value)
}

// EvaluateOperator compares left (the live value) against right (the
// condition operand). A nil left value is absent: is_empty holds and every
// other operator is false. Unknown operators are false.
func EvaluateOperator(op model.Operator, left, right any) bool {
	if left == nil {
		return op == model.OpIsEmpty
	}
	switch op {
	case model.OpEquals:
		return coerce.String(left) == coerce.String(right)
	case model.OpNotEquals:
		return coerce.String(left) != coerce.String(right)
	case model.OpContains:
		return strings.Contains(
			strings.ToLower(coerce.String(left)),
			strings.ToLower(coerce.String(right)),
		)
	case model.OpGT, model.OpGTE, model.OpLT, model.OpLTE:
		return compareNumbers(op, left, right)
	case model.OpIsEmpty:
		return coerce.IsEmpty(left)
	case model.OpIsNotEmpty:
		return !coerce.IsEmpty(left)
	case model.OpIsChecked:
		return coerce.Truthy(left)
	case model.OpIsUnchecked:
		return !coerce.Truthy(left)
	default:
		return false
	}
}

func compareNumbers(op model.Operator, left, right any) bool {
	l, ok := coerce.Number(left)
	if !ok {
		return false
	}
	r, ok := coerce.Number(right)
	if !ok {
		return false
	}
	switch op {
	case model.OpGT:
		return l > r
	case model.OpGTE:
		return l >= r
	case model.OpLT:
		return l < r
	default:
		return l <= r
	}
}

// VisibleComponents evaluates every component's rule and returns the set of
// visible component ids.
func VisibleComponents(schema model.FormSchema, values map[string]any) map[string]bool {
	return visibleWith(Default, schema, values)
}

// VisibleComponentsWith is VisibleComponents using a custom evaluator.
func VisibleComponentsWith(eval Evaluator, schema model.FormSchema, values map[string]any) map[string]bool {
	if eval == nil {
		eval = Default
	}
	return visibleWith(eval, schema, values)
}

func visibleWith(eval Evaluator, schema model.FormSchema, values map[string]any) map[string]bool {
	out := make(map[string]bool, len(schema.Components))
	for _, comp := range schema.Components {
		if eval.Visible(comp.Props.VisibilityRule, values) {
			out[comp.ID] = true
		}
	}
	return out
}
