package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/registry"
	"github.com/goliatone/go-formbuilder/pkg/visibility"
)

// SchemaIssue represents a schema authoring problem with location metadata.
// Path is slash separated ("components/<id>/props/visibilityRule"); Field is
// the component's field name when known.
type SchemaIssue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// SchemaValidationResult captures authoring checks for builder previews.
type SchemaValidationResult struct {
	Valid  bool          `json:"valid"`
	Issues []SchemaIssue `json:"issues,omitempty"`
}

// CheckSchema reports problems a builder should surface before publishing a
// form: unknown field types, configs rejected by the registry, duplicate
// field names, values of the wrong shape for a typed prop, dangling step
// references, uncompilable patterns and malformed visibility rules. A nil
// registry skips the type and config checks.
func CheckSchema(schema model.FormSchema, reg *registry.Registry) SchemaValidationResult {
	result := SchemaValidationResult{Valid: true}

	ids := make([]string, 0, len(schema.Components))
	for _, comp := range schema.Components {
		ids = append(ids, comp.ID)
	}

	names := make(map[string]string, len(schema.Components))
	for _, comp := range schema.Components {
		base := "components/" + comp.ID
		field := comp.Props.Name

		if reg != nil {
			if def, ok := reg.Get(comp.Type); !ok {
				result.add(base+"/type", field, fmt.Sprintf("unknown field type %q", comp.Type))
			} else if err := def.Validate(comp.Props); err != nil {
				result.add(base+"/props", field, configMessage(err))
			}
		}

		for _, key := range comp.Props.UnboundKeys(comp.Type) {
			result.add(base+"/props/"+key, field, fmt.Sprintf("value of %q has the wrong type and is ignored", key))
		}

		if !schema.HasStep(comp.StepID) {
			result.add(base+"/stepId", field, fmt.Sprintf("unknown step %q", comp.StepID))
		}

		if name := strings.TrimSpace(field); name != "" {
			if other, dup := names[name]; dup {
				result.add(base+"/props/name", field, fmt.Sprintf("field name %q already used by component %q", name, other))
			} else {
				names[name] = comp.ID
			}
		}

		for _, pattern := range patternSources(comp.Props) {
			if _, err := CompilePattern(pattern); err != nil {
				result.add(base+"/props", field, fmt.Sprintf("invalid pattern %q", pattern))
			}
		}

		for _, issue := range visibility.Inspect(comp.Props.VisibilityRule, ids) {
			result.add(base+"/props/visibilityRule", field, issue.String())
		}
		if rule := comp.Props.VisibilityRule; rule != nil {
			for idx, cond := range rule.Conditions {
				if cond.SourceComponentID == comp.ID {
					result.add(base+"/props/visibilityRule", field, fmt.Sprintf("condition %d: references its own component", idx))
				}
			}
		}
	}

	return result
}

func (r *SchemaValidationResult) add(path, field, message string) {
	r.Valid = false
	r.Issues = append(r.Issues, SchemaIssue{Path: path, Field: field, Message: strings.TrimSpace(message)})
}

func configMessage(err error) string {
	var cfgErr *registry.ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Message
	}
	return err.Error()
}

func patternSources(props model.Props) []string {
	var out []string
	for _, rule := range props.ValidationRules {
		if rule.Kind != model.RulePattern {
			continue
		}
		if source, ok := rule.Value.(string); ok {
			out = append(out, source)
		}
	}
	if text, ok := props.Text(); ok && strings.TrimSpace(text.Pattern) != "" {
		out = append(out, text.Pattern)
	}
	return out
}
