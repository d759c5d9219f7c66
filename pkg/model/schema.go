package model

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/mohae/deepcopy"
)

type componentWire struct {
	ID       string          `json:"id"`
	Type     FieldType       `json:"type"`
	Props    json.RawMessage `json:"props"`
	Order    int             `json:"order"`
	StepID   string          `json:"stepId,omitempty"`
	Children []string        `json:"children,omitempty"`
}

// UnmarshalJSON binds the props object to the component's field type.
func (c *Component) UnmarshalJSON(data []byte) error {
	var wire componentWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	props := Props{}
	if len(wire.Props) > 0 && string(wire.Props) != "null" {
		decoded, err := DecodeProps(wire.Type, wire.Props)
		if err != nil {
			return fmt.Errorf("component %q: %w", wire.ID, err)
		}
		props = decoded
	} else if settings := NewSettings(wire.Type); settings != nil {
		props.Settings = settings
	}
	*c = Component{
		ID:       wire.ID,
		Type:     wire.Type,
		Props:    props,
		Order:    wire.Order,
		StepID:   wire.StepID,
		Children: wire.Children,
	}
	return nil
}

// Clone returns a deep copy of the component.
func (c Component) Clone() Component {
	out := c
	out.Props = c.Props.Clone()
	if c.Children != nil {
		out.Children = append([]string{}, c.Children...)
	}
	return out
}

// Clone returns a deep copy of the schema.
func (s FormSchema) Clone() FormSchema {
	out := FormSchema{}
	if s.Steps != nil {
		out.Steps = append([]FormStep{}, s.Steps...)
	}
	if s.Components != nil {
		out.Components = make([]Component, len(s.Components))
		for i, comp := range s.Components {
			out.Components[i] = comp.Clone()
		}
	}
	return out
}

// Step returns the step with the given id.
func (s FormSchema) Step(id string) (FormStep, bool) {
	for _, step := range s.Steps {
		if step.ID == id {
			return step, true
		}
	}
	return FormStep{}, false
}

// HasStep reports whether a step with the given id exists.
func (s FormSchema) HasStep(id string) bool {
	_, ok := s.Step(id)
	return ok
}

// Component returns the component with the given id.
func (s FormSchema) Component(id string) (Component, bool) {
	for _, comp := range s.Components {
		if comp.ID == id {
			return comp, true
		}
	}
	return Component{}, false
}

// OrderedSteps returns the steps sorted by order. Ties keep slice order.
func (s FormSchema) OrderedSteps() []FormStep {
	steps := append([]FormStep{}, s.Steps...)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	return steps
}

// ComponentsInStep returns the components of one step sorted by order.
func (s FormSchema) ComponentsInStep(stepID string) []Component {
	var out []Component
	for _, comp := range s.Components {
		if comp.StepID == stepID {
			out = append(out, comp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// cloneValue deep-copies JSON-like values. Pointers to structs, such as
// compiled patterns, are shared.
func cloneValue(v any) any {
	switch v.(type) {
	case nil, string, bool, float64, float32, int, int64, int32, json.Number:
		return v
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.Elem().Kind() == reflect.Struct {
		return v
	}
	return deepcopy.Copy(v)
}
