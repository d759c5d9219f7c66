package model

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// Settings is the type-specific part of a component's props. The concrete
// type is selected by the component's FieldType (see NewSettings); unknown
// field types carry no settings and keep every extra key in Props.Extra.
type Settings interface {
	keys() []string
	clone() Settings
}

// TextSettings applies to text, textarea and rich_text fields.
type TextSettings struct {
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Rows      *int     `json:"rows,omitempty"`
	Toolbar   []string `json:"toolbar,omitempty"`
}

func (s *TextSettings) keys() []string {
	return []string{"minLength", "maxLength", "pattern", "rows", "toolbar"}
}

func (s *TextSettings) clone() Settings {
	out := *s
	out.MinLength = cloneInt(s.MinLength)
	out.MaxLength = cloneInt(s.MaxLength)
	out.Rows = cloneInt(s.Rows)
	out.Toolbar = append([]string(nil), s.Toolbar...)
	if s.Toolbar == nil {
		out.Toolbar = nil
	}
	return &out
}

// ChoiceSettings applies to select and radio fields.
type ChoiceSettings struct {
	Options  []Option `json:"options,omitempty"`
	Multiple bool     `json:"multiple,omitempty"`
}

func (s *ChoiceSettings) keys() []string { return []string{"options", "multiple"} }

func (s *ChoiceSettings) clone() Settings {
	out := *s
	if s.Options != nil {
		out.Options = make([]Option, len(s.Options))
		for i, opt := range s.Options {
			out.Options[i] = Option{Label: opt.Label, Value: cloneValue(opt.Value)}
		}
	}
	return &out
}

// CheckboxSettings applies to checkbox fields. Value is the payload reported
// when the box is checked.
type CheckboxSettings struct {
	Value any `json:"value,omitempty"`
}

func (s *CheckboxSettings) keys() []string { return []string{"value"} }

func (s *CheckboxSettings) clone() Settings {
	return &CheckboxSettings{Value: cloneValue(s.Value)}
}

// FileSettings applies to file_upload fields.
type FileSettings struct {
	Accept   string `json:"accept,omitempty"`
	Multiple bool   `json:"multiple,omitempty"`
	MaxSize  *int64 `json:"maxSize,omitempty"`
}

func (s *FileSettings) keys() []string { return []string{"accept", "multiple", "maxSize"} }

func (s *FileSettings) clone() Settings {
	out := *s
	if s.MaxSize != nil {
		v := *s.MaxSize
		out.MaxSize = &v
	}
	return &out
}

// TemporalSettings applies to date and time fields. Bounds use the HTML
// input formats (YYYY-MM-DD, HH:MM).
type TemporalSettings struct {
	Min  string `json:"min,omitempty"`
	Max  string `json:"max,omitempty"`
	Step string `json:"step,omitempty"`
}

func (s *TemporalSettings) keys() []string { return []string{"min", "max", "step"} }

func (s *TemporalSettings) clone() Settings {
	out := *s
	return &out
}

// SliderSettings applies to slider fields.
type SliderSettings struct {
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step *float64 `json:"step,omitempty"`
}

func (s *SliderSettings) keys() []string { return []string{"min", "max", "step"} }

func (s *SliderSettings) clone() Settings {
	return &SliderSettings{Min: cloneFloat(s.Min), Max: cloneFloat(s.Max), Step: cloneFloat(s.Step)}
}

// NewSettings returns empty settings for the field type, or nil when the type
// has no typed settings.
func NewSettings(t FieldType) Settings {
	switch t {
	case FieldTypeText, FieldTypeTextarea, FieldTypeRichText:
		return &TextSettings{}
	case FieldTypeSelect, FieldTypeRadio:
		return &ChoiceSettings{}
	case FieldTypeCheckbox:
		return &CheckboxSettings{}
	case FieldTypeFileUpload:
		return &FileSettings{}
	case FieldTypeDate, FieldTypeTime:
		return &TemporalSettings{}
	case FieldTypeSlider:
		return &SliderSettings{}
	default:
		return nil
	}
}

// Props is the `props` object of a component.
type Props struct {
	FieldConfig
	VisibilityRule *VisibilityRule
	Settings       Settings
	Extra          map[string]any
}

// propsWire is the JSON view of the typed, type-independent props keys.
type propsWire struct {
	FieldConfig
	VisibilityRule *VisibilityRule `json:"visibilityRule,omitempty"`
}

var commonKeys = []string{
	"label", "name", "helperText", "required", "disabled", "placeholder",
	"className", "defaultValue", "validationRules", "visibilityRule",
}

// Text returns the text settings when the props carry them.
func (p Props) Text() (*TextSettings, bool) {
	s, ok := p.Settings.(*TextSettings)
	return s, ok && s != nil
}

// Choice returns the choice settings when the props carry them.
func (p Props) Choice() (*ChoiceSettings, bool) {
	s, ok := p.Settings.(*ChoiceSettings)
	return s, ok && s != nil
}

// Checkbox returns the checkbox settings when the props carry them.
func (p Props) Checkbox() (*CheckboxSettings, bool) {
	s, ok := p.Settings.(*CheckboxSettings)
	return s, ok && s != nil
}

// File returns the file upload settings when the props carry them.
func (p Props) File() (*FileSettings, bool) {
	s, ok := p.Settings.(*FileSettings)
	return s, ok && s != nil
}

// Temporal returns the date/time settings when the props carry them.
func (p Props) Temporal() (*TemporalSettings, bool) {
	s, ok := p.Settings.(*TemporalSettings)
	return s, ok && s != nil
}

// Slider returns the slider settings when the props carry them.
func (p Props) Slider() (*SliderSettings, bool) {
	s, ok := p.Settings.(*SliderSettings)
	return s, ok && s != nil
}

// DecodeProps binds a JSON props object to the typed representation for the
// field type. Keys whose value does not fit the typed field, and keys no typed
// field claims, are kept in Extra; only a non-object payload is an error.
func DecodeProps(t FieldType, data []byte) (Props, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Props{}, fmt.Errorf("model: props must be an object: %w", err)
	}
	if raw == nil {
		return Props{}, fmt.Errorf("model: props must be an object")
	}

	extra := make(map[string]any)

	var wire propsWire
	bindKeys(raw, commonKeys, &wire, extra)

	props := Props{
		FieldConfig:    wire.FieldConfig,
		VisibilityRule: wire.VisibilityRule,
	}

	if settings := NewSettings(t); settings != nil {
		bindKeys(raw, settings.keys(), settings, extra)
		props.Settings = settings
	}

	for key, msg := range raw {
		var value any
		if err := json.Unmarshal(msg, &value); err == nil {
			extra[key] = value
		}
	}
	if len(extra) > 0 {
		props.Extra = extra
	}
	return props.Compact(), nil
}

// Compact replaces empty slices with nil so that a decoded value and its
// re-encoded form compare equal. The receiver is not modified.
func (p Props) Compact() Props {
	if len(p.ValidationRules) == 0 {
		p.ValidationRules = nil
	}
	if len(p.Extra) == 0 {
		p.Extra = nil
	}
	switch s := p.Settings.(type) {
	case *TextSettings:
		if s != nil && s.Toolbar != nil && len(s.Toolbar) == 0 {
			c := *s
			c.Toolbar = nil
			p.Settings = &c
		}
	case *ChoiceSettings:
		if s != nil && s.Options != nil && len(s.Options) == 0 {
			c := *s
			c.Options = nil
			p.Settings = &c
		}
	}
	return p
}

// UnboundKeys lists the Extra keys that a typed field of t would own. They
// hold values of the wrong shape for that field and are kept verbatim.
func (p Props) UnboundKeys(t FieldType) []string {
	if len(p.Extra) == 0 {
		return nil
	}
	owned := make(map[string]struct{}, len(commonKeys))
	for _, key := range commonKeys {
		owned[key] = struct{}{}
	}
	if settings := NewSettings(t); settings != nil {
		for _, key := range settings.keys() {
			owned[key] = struct{}{}
		}
	}
	var out []string
	for key := range p.Extra {
		if _, ok := owned[key]; ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// PropsFromMap decodes a generic props map for the field type.
func PropsFromMap(t FieldType, values map[string]any) (Props, error) {
	if values == nil {
		values = map[string]any{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return Props{}, fmt.Errorf("model: encode props: %w", err)
	}
	return DecodeProps(t, data)
}

// ToMap flattens the props into the generic JSON object form. An Extra
// value is emitted for a key unless the typed view holds a non-empty value
// for it.
func (p Props) ToMap() (map[string]any, error) {
	out := make(map[string]any, len(p.Extra)+len(commonKeys))
	if err := mergeInto(out, propsWire{FieldConfig: p.FieldConfig, VisibilityRule: p.VisibilityRule}); err != nil {
		return nil, err
	}
	if p.Settings != nil {
		if err := mergeInto(out, p.Settings); err != nil {
			return nil, err
		}
	}
	for key, value := range p.Extra {
		if typed, ok := out[key]; ok && !emptyJSON(typed) {
			continue
		}
		out[key] = cloneValue(value)
	}
	return out, nil
}

func emptyJSON(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	default:
		return false
	}
}

// WithType rebinds the props to another field type's settings, moving keys
// the new type does not understand into Extra.
func (p Props) WithType(t FieldType) (Props, error) {
	values, err := p.ToMap()
	if err != nil {
		return Props{}, err
	}
	return PropsFromMap(t, values)
}

// MarshalJSON emits the flat props object.
func (p Props) MarshalJSON() ([]byte, error) {
	values, err := p.ToMap()
	if err != nil {
		return nil, err
	}
	return json.Marshal(values)
}

// UnmarshalJSON decodes props without a field type; type-specific keys land
// in Extra until the owning component rebinds them.
func (p *Props) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeProps("", data)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

// Clone returns a deep copy of the props.
func (p Props) Clone() Props {
	out := p
	out.DefaultValue = cloneValue(p.DefaultValue)
	out.ValidationRules = cloneRules(p.ValidationRules)
	if p.VisibilityRule != nil {
		rule := p.VisibilityRule.Clone()
		out.VisibilityRule = &rule
	}
	if p.Settings != nil {
		out.Settings = p.Settings.clone()
	}
	if p.Extra != nil {
		out.Extra = make(map[string]any, len(p.Extra))
		for key, value := range p.Extra {
			out.Extra[key] = cloneValue(value)
		}
	}
	return out
}

// Clone returns a deep copy of the rule.
func (r VisibilityRule) Clone() VisibilityRule {
	out := r
	if r.Conditions != nil {
		out.Conditions = make([]VisibilityCondition, len(r.Conditions))
		for i, cond := range r.Conditions {
			cond.Value = cloneValue(cond.Value)
			out.Conditions[i] = cond
		}
	}
	return out
}

func bindKeys(raw map[string]json.RawMessage, keys []string, dst any, extra map[string]any) {
	for _, key := range keys {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		delete(raw, key)

		// Decode into a scratch value first: a failed decode may already have
		// written a partial value into dst.
		single, err := json.Marshal(map[string]json.RawMessage{key: msg})
		if err == nil {
			scratch := reflect.New(reflect.TypeOf(dst).Elem()).Interface()
			err = json.Unmarshal(single, scratch)
		}
		if err == nil {
			err = json.Unmarshal(single, dst)
		}
		if err != nil {
			var value any
			if json.Unmarshal(msg, &value) == nil {
				extra[key] = value
			}
		}
	}
}

func mergeInto(dst map[string]any, src any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("model: encode props: %w", err)
	}
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("model: encode props: %w", err)
	}
	for key, value := range values {
		dst[key] = value
	}
	return nil
}

func cloneRules(rules []ValidationRule) []ValidationRule {
	if rules == nil {
		return nil
	}
	out := make([]ValidationRule, len(rules))
	for i, rule := range rules {
		rule.Value = cloneValue(rule.Value)
		out[i] = rule
	}
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
