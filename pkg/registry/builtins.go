package registry

import (
	"strings"

	"github.com/goliatone/go-formbuilder/internal/coerce"
	"github.com/goliatone/go-formbuilder/pkg/model"
)

// RegisterBuiltins installs the ten built-in field kinds.
func RegisterBuiltins(reg *Registry) {
	if reg == nil {
		return
	}
	for _, def := range Builtins() {
		reg.Register(def.Type, def)
	}
}

// Builtins returns fresh copies of the built-in definitions in palette order.
func Builtins() []Definition {
	return []Definition{
		{
			Type:           model.FieldTypeText,
			Title:          "Text Input",
			Description:    "Single-line text field",
			Icon:           "type",
			DefaultConfig:  defaultProps("Text Input", "text_input", &model.TextSettings{}),
			ValidateConfig: validateText(model.FieldTypeText),
		},
		{
			Type:           model.FieldTypeTextarea,
			Title:          "Textarea",
			Description:    "Multi-line text field",
			Icon:           "align-left",
			DefaultConfig:  defaultProps("Textarea", "textarea", &model.TextSettings{Rows: intPtr(3)}),
			ValidateConfig: validateText(model.FieldTypeTextarea),
		},
		{
			Type:           model.FieldTypeSelect,
			Title:          "Select",
			Description:    "Dropdown selection field",
			Icon:           "chevron-down",
			DefaultConfig:  defaultProps("Select", "select", &model.ChoiceSettings{Options: []model.Option{}}),
			ValidateConfig: validateChoice(model.FieldTypeSelect),
		},
		{
			Type:           model.FieldTypeCheckbox,
			Title:          "Checkbox",
			Description:    "Boolean toggle field",
			Icon:           "check-square",
			DefaultConfig:  defaultProps("Checkbox", "checkbox", &model.CheckboxSettings{}),
			ValidateConfig: validateBasic(model.FieldTypeCheckbox),
		},
		{
			Type:           model.FieldTypeRadio,
			Title:          "Radio",
			Description:    "Radio button group field",
			Icon:           "circle-dot",
			DefaultConfig:  defaultProps("Radio", "radio", &model.ChoiceSettings{Options: []model.Option{}}),
			ValidateConfig: validateChoice(model.FieldTypeRadio),
		},
		{
			Type:           model.FieldTypeFileUpload,
			Title:          "File Upload",
			Description:    "File upload field",
			Icon:           "upload",
			DefaultConfig:  defaultProps("File Upload", "file_upload", &model.FileSettings{}),
			ValidateConfig: validateBasic(model.FieldTypeFileUpload),
		},
		{
			Type:           model.FieldTypeDate,
			Title:          "Date",
			Description:    "Date picker field",
			Icon:           "calendar",
			DefaultConfig:  defaultProps("Date", "date", &model.TemporalSettings{}),
			ValidateConfig: validateBasic(model.FieldTypeDate),
		},
		{
			Type:           model.FieldTypeTime,
			Title:          "Time",
			Description:    "Time picker field",
			Icon:           "clock",
			DefaultConfig:  defaultProps("Time", "time", &model.TemporalSettings{}),
			ValidateConfig: validateBasic(model.FieldTypeTime),
		},
		{
			Type:        model.FieldTypeRichText,
			Title:       "Rich Text",
			Description: "Rich text editor field",
			Icon:        "bold",
			DefaultConfig: defaultProps("Rich Text", "rich_text", &model.TextSettings{
				Toolbar: []string{"bold", "italic", "underline", "link"},
			}),
			ValidateConfig: validateText(model.FieldTypeRichText),
		},
		{
			Type:        model.FieldTypeSlider,
			Title:       "Slider/Rating",
			Description: "Slider or rating field",
			Icon:        "sliders",
			DefaultConfig: defaultProps("Slider", "slider", &model.SliderSettings{
				Min:  floatPtr(0),
				Max:  floatPtr(100),
				Step: floatPtr(1),
			}),
			ValidateConfig: validateSlider,
		},
	}
}

func defaultProps(label, name string, settings model.Settings) model.Props {
	return model.Props{
		FieldConfig: model.FieldConfig{Label: label, Name: name},
		Settings:    settings,
	}
}

func requireIdentity(t model.FieldType, props model.Props) error {
	if strings.TrimSpace(props.Label) == "" {
		return &ConfigError{Type: t, Message: "Label is required"}
	}
	if strings.TrimSpace(props.Name) == "" {
		return &ConfigError{Type: t, Message: "Name is required"}
	}
	return nil
}

func validateBasic(t model.FieldType) func(model.Props) error {
	return func(props model.Props) error {
		return requireIdentity(t, props)
	}
}

func validateText(t model.FieldType) func(model.Props) error {
	return func(props model.Props) error {
		if err := requireIdentity(t, props); err != nil {
			return err
		}
		text, ok := props.Text()
		if !ok {
			return nil
		}
		if text.MinLength != nil && text.MaxLength != nil && *text.MinLength > *text.MaxLength {
			return &ConfigError{Type: t, Message: "Min length cannot be greater than max length"}
		}
		return nil
	}
}

func validateChoice(t model.FieldType) func(model.Props) error {
	return func(props model.Props) error {
		if err := requireIdentity(t, props); err != nil {
			return err
		}
		choice, ok := props.Choice()
		if !ok || len(choice.Options) == 0 {
			return &ConfigError{Type: t, Message: "At least one option is required"}
		}
		seen := make(map[string]struct{}, len(choice.Options))
		for _, opt := range choice.Options {
			key := coerce.String(opt.Value)
			if _, dup := seen[key]; dup {
				return &ConfigError{Type: t, Message: "Option values must be unique"}
			}
			seen[key] = struct{}{}
		}
		return nil
	}
}

func validateSlider(props model.Props) error {
	if err := requireIdentity(model.FieldTypeSlider, props); err != nil {
		return err
	}
	slider, ok := props.Slider()
	if !ok {
		return nil
	}
	switch {
	case slider.Min == nil && slider.Max == nil:
		return nil
	case slider.Min == nil:
		return &ConfigError{Type: model.FieldTypeSlider, Message: "Min value is required"}
	case slider.Max == nil:
		return &ConfigError{Type: model.FieldTypeSlider, Message: "Max value is required"}
	case *slider.Min >= *slider.Max:
		return &ConfigError{Type: model.FieldTypeSlider, Message: "Min must be less than max"}
	}
	return nil
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
