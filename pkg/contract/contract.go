// Package contract describes the submission payload of a form as an OpenAPI
// 3 document so that sinks can validate what they receive.
package contract

import (
	"context"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// VisibilityExtension carries a component's visibility rule on its property
// schema. Conditionally visible fields are never listed as required.
const VisibilityExtension = "x-formbuilder-visibility"

// ComponentExtension records the component id behind a property.
const ComponentExtension = "x-formbuilder-component"

// Info describes the generated document.
type Info struct {
	Title       string
	Version     string
	Description string
}

// SubmissionSchema returns an object schema keyed by field name, one
// property per component.
func SubmissionSchema(schema model.FormSchema) *openapi3.Schema {
	root := openapi3.NewObjectSchema()
	root.Properties = openapi3.Schemas{}

	var required []string
	for _, comp := range schema.Components {
		name := FieldName(comp)
		root.Properties[name] = openapi3.NewSchemaRef("", propertySchema(comp))
		if comp.Props.Required && comp.Props.VisibilityRule == nil {
			required = append(required, name)
		}
	}
	if len(required) > 0 {
		root.Required = required
	}
	return root
}

// Document wraps the submission schema in a document with a single
// POST /submissions operation.
func Document(schema model.FormSchema, info Info) *openapi3.T {
	if strings.TrimSpace(info.Title) == "" {
		info.Title = "Form submission"
	}
	if strings.TrimSpace(info.Version) == "" {
		info.Version = "1.0.0"
	}

	payload := SubmissionSchema(schema)
	operation := &openapi3.Operation{
		OperationID: "submitForm",
		Summary:     "Submit form values",
		RequestBody: &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(payload),
		},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(201, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Submission accepted")}),
			openapi3.WithStatus(422, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Submission failed validation")}),
		),
	}

	paths := openapi3.NewPaths()
	paths.Set("/submissions", &openapi3.PathItem{Post: operation})

	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       info.Title,
			Version:     info.Version,
			Description: info.Description,
		},
		Paths: paths,
	}
}

// Validate checks the generated document. Field patterns use ECMAScript
// syntax, so pattern compilation is left to the validation package.
func Validate(ctx context.Context, doc *openapi3.T) error {
	if err := doc.Validate(ctx, openapi3.DisableSchemaPatternValidation()); err != nil {
		return fmt.Errorf("contract: validate document: %w", err)
	}
	return nil
}

// ValidatePayload checks a name-keyed payload against the submission schema.
func ValidatePayload(schema model.FormSchema, payload map[string]any) error {
	if err := SubmissionSchema(schema).VisitJSON(payload, openapi3.DisablePatternValidation(), openapi3.MultiErrors()); err != nil {
		return fmt.Errorf("contract: payload: %w", err)
	}
	return nil
}

// FieldName is the payload key for a component: its field name, or its id
// when the name is blank.
func FieldName(comp model.Component) string {
	if name := strings.TrimSpace(comp.Props.Name); name != "" {
		return name
	}
	return comp.ID
}

func propertySchema(comp model.Component) *openapi3.Schema {
	props := comp.Props
	var prop *openapi3.Schema

	switch comp.Type {
	case model.FieldTypeCheckbox:
		prop = openapi3.NewBoolSchema()
	case model.FieldTypeSlider:
		prop = openapi3.NewFloat64Schema()
		if slider, ok := props.Slider(); ok {
			if slider.Min != nil {
				prop.WithMin(*slider.Min)
			}
			if slider.Max != nil {
				prop.WithMax(*slider.Max)
			}
		}
	case model.FieldTypeDate:
		prop = openapi3.NewStringSchema().WithFormat("date")
	case model.FieldTypeTime:
		prop = openapi3.NewStringSchema().WithFormat("time")
	case model.FieldTypeFileUpload:
		prop = openapi3.NewStringSchema().WithFormat("binary")
		if file, ok := props.File(); ok && file.Multiple {
			prop = openapi3.NewArraySchema().WithItems(prop)
		}
	case model.FieldTypeSelect, model.FieldTypeRadio:
		prop = choiceSchema(props)
	case model.FieldTypeText, model.FieldTypeTextarea, model.FieldTypeRichText:
		prop = openapi3.NewStringSchema()
		if text, ok := props.Text(); ok {
			if text.MinLength != nil && *text.MinLength > 0 {
				prop.WithMinLength(int64(*text.MinLength))
			}
			if text.MaxLength != nil && *text.MaxLength >= 0 {
				prop.WithMaxLength(int64(*text.MaxLength))
			}
			if strings.TrimSpace(text.Pattern) != "" {
				prop.WithPattern(text.Pattern)
			}
		}
	default:
		prop = openapi3.NewSchema()
	}

	prop.Title = props.Label
	prop.Description = props.HelperText
	if props.DefaultValue != nil {
		prop.Default = props.DefaultValue
	}
	prop.Extensions = map[string]any{ComponentExtension: comp.ID}
	if props.VisibilityRule != nil {
		prop.Extensions[VisibilityExtension] = props.VisibilityRule.Clone()
	}
	return prop
}

func choiceSchema(props model.Props) *openapi3.Schema {
	item := openapi3.NewSchema()
	choice, ok := props.Choice()
	if ok && len(choice.Options) > 0 {
		values := make([]any, 0, len(choice.Options))
		allStrings, allNumbers := true, true
		for _, opt := range choice.Options {
			values = append(values, opt.Value)
			switch opt.Value.(type) {
			case string:
				allNumbers = false
			case float64, int, int64:
				allStrings = false
			default:
				allStrings, allNumbers = false, false
			}
		}
		switch {
		case allStrings:
			item = openapi3.NewStringSchema()
		case allNumbers:
			item = openapi3.NewFloat64Schema()
		}
		item.WithEnum(values...)
	}
	if ok && choice.Multiple {
		return openapi3.NewArraySchema().WithItems(item)
	}
	return item
}
