package model

// FieldType identifies the kind of input a component renders.
type FieldType string

const (
	FieldTypeText       FieldType = "text"
	FieldTypeTextarea   FieldType = "textarea"
	FieldTypeSelect     FieldType = "select"
	FieldTypeCheckbox   FieldType = "checkbox"
	FieldTypeRadio      FieldType = "radio"
	FieldTypeFileUpload FieldType = "file_upload"
	FieldTypeDate       FieldType = "date"
	FieldTypeTime       FieldType = "time"
	FieldTypeRichText   FieldType = "rich_text"
	FieldTypeSlider     FieldType = "slider"
)

var fieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeTextarea,
	FieldTypeSelect,
	FieldTypeCheckbox,
	FieldTypeRadio,
	FieldTypeFileUpload,
	FieldTypeDate,
	FieldTypeTime,
	FieldTypeRichText,
	FieldTypeSlider,
}

// FieldTypes returns the built-in field kinds in palette order.
func FieldTypes() []FieldType {
	return append([]FieldType(nil), fieldTypes...)
}

// Known reports whether t is one of the built-in field kinds.
func (t FieldType) Known() bool {
	for _, candidate := range fieldTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// RuleKind names a validation rule check.
type RuleKind string

const (
	RuleRequired RuleKind = "required"
	RuleMin      RuleKind = "min"
	RuleMax      RuleKind = "max"
	RulePattern  RuleKind = "pattern"
	RuleCustom   RuleKind = "custom"
)

// ValidationRule is a single user-authored constraint. Value holds the
// comparison operand: a number for min/max, a pattern string for pattern.
// Patterns are always persisted as strings; a compiled expression may be
// supplied at runtime but never survives serialization.
type ValidationRule struct {
	Kind    RuleKind `json:"type" yaml:"type"`
	Value   any      `json:"value,omitempty" yaml:"value,omitempty"`
	Message string   `json:"message,omitempty" yaml:"message,omitempty"`
}

// Option is one choice of a select or radio field. Value is a string or a
// number and must be unique within its list.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value any    `json:"value" yaml:"value"`
}

// Action decides what a matching visibility rule does to its component.
type Action string

const (
	ActionShow Action = "show"
	ActionHide Action = "hide"
)

// Match decides how condition results combine.
type Match string

const (
	MatchAll Match = "all"
	MatchAny Match = "any"
)

// Operator is the comparison applied by a VisibilityCondition.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpGT          Operator = "gt"
	OpGTE         Operator = "gte"
	OpLT          Operator = "lt"
	OpLTE         Operator = "lte"
	OpIsEmpty     Operator = "is_empty"
	OpIsNotEmpty  Operator = "is_not_empty"
	OpIsChecked   Operator = "is_checked"
	OpIsUnchecked Operator = "is_unchecked"
)

var operators = []Operator{
	OpEquals, OpNotEquals, OpContains,
	OpGT, OpGTE, OpLT, OpLTE,
	OpIsEmpty, OpIsNotEmpty, OpIsChecked, OpIsUnchecked,
}

// Operators lists every supported visibility operator.
func Operators() []Operator {
	return append([]Operator(nil), operators...)
}

// Known reports whether op is a supported operator.
func (op Operator) Known() bool {
	for _, candidate := range operators {
		if candidate == op {
			return true
		}
	}
	return false
}

// VisibilityCondition compares the live value of another component.
type VisibilityCondition struct {
	SourceComponentID string   `json:"sourceComponentId" yaml:"sourceComponentId"`
	Operator          Operator `json:"operator" yaml:"operator"`
	Value             any      `json:"value,omitempty" yaml:"value,omitempty"`
}

// VisibilityRule shows or hides a component based on other components'
// values.
type VisibilityRule struct {
	Action     Action                `json:"action" yaml:"action"`
	Match      Match                 `json:"match" yaml:"match"`
	Conditions []VisibilityCondition `json:"conditions" yaml:"conditions"`
}

// FieldConfig holds the attributes shared by every field kind.
type FieldConfig struct {
	Label           string           `json:"label"`
	Name            string           `json:"name"`
	HelperText      string           `json:"helperText,omitempty"`
	Required        bool             `json:"required,omitempty"`
	Disabled        bool             `json:"disabled,omitempty"`
	Placeholder     string           `json:"placeholder,omitempty"`
	ClassName       string           `json:"className,omitempty"`
	DefaultValue    any              `json:"defaultValue,omitempty"`
	ValidationRules []ValidationRule `json:"validationRules,omitempty"`
}

// Component is one placed field instance. Order is the dense rank of the
// component inside the step identified by StepID.
type Component struct {
	ID       string    `json:"id"`
	Type     FieldType `json:"type"`
	Props    Props     `json:"props"`
	Order    int       `json:"order"`
	StepID   string    `json:"stepId,omitempty"`
	Children []string  `json:"children,omitempty"`
}

// FormStep is one page of a multi-step form.
type FormStep struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Order int    `json:"order" yaml:"order"`
}

// FormSchema is the full {steps, components} aggregate.
type FormSchema struct {
	Steps      []FormStep  `json:"steps"`
	Components []Component `json:"components"`
}

const (
	// DefaultStepID identifies the step synthesised for empty or legacy
	// schemas.
	DefaultStepID = "step_1"
	// DefaultStepTitle is the title of the synthesised step.
	DefaultStepTitle = "Step 1"
)

// DefaultStep returns the implicit first step.
func DefaultStep() FormStep {
	return FormStep{ID: DefaultStepID, Title: DefaultStepTitle, Order: 0}
}

// NewSchema returns the initial builder schema: one default step and no
// components.
func NewSchema() FormSchema {
	return FormSchema{Steps: []FormStep{DefaultStep()}}
}
