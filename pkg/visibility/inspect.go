package visibility

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// Issue describes a malformed part of a visibility rule. Condition is the
// index of the offending condition, or -1 for rule-level issues.
type Issue struct {
	Condition int
	Message   string
}

func (i Issue) String() string {
	if i.Condition < 0 {
		return i.Message
	}
	return fmt.Sprintf("condition %d: %s", i.Condition, i.Message)
}

// Inspect reports the parts of rule that evaluate as never-matching or fall
// back to defaults. When knownIDs is non-nil, conditions referencing ids
// outside it are reported too.
func Inspect(rule *model.VisibilityRule, knownIDs []string) []Issue {
	if rule == nil {
		return nil
	}

	var issues []Issue
	switch rule.Action {
	case model.ActionShow, model.ActionHide:
	default:
		issues = append(issues, Issue{Condition: -1, Message: fmt.Sprintf("unknown action %q, treated as show", rule.Action)})
	}
	switch rule.Match {
	case model.MatchAll, model.MatchAny:
	default:
		issues = append(issues, Issue{Condition: -1, Message: fmt.Sprintf("unknown match %q, treated as all", rule.Match)})
	}

	var known map[string]struct{}
	if knownIDs != nil {
		known = make(map[string]struct{}, len(knownIDs))
		for _, id := range knownIDs {
			known[id] = struct{}{}
		}
	}

	for idx, cond := range rule.Conditions {
		source := strings.TrimSpace(cond.SourceComponentID)
		if source == "" {
			issues = append(issues, Issue{Condition: idx, Message: "missing source component"})
		} else if known != nil {
			if _, ok := known[source]; !ok {
				issues = append(issues, Issue{Condition: idx, Message: fmt.Sprintf("unknown source component %q", source)})
			}
		}
		if !cond.Operator.Known() {
			issues = append(issues, Issue{Condition: idx, Message: fmt.Sprintf("unknown operator %q", cond.Operator)})
		}
	}
	return issues
}
