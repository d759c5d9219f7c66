package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// Schema versions understood by the codec.
const (
	VersionV1      = 1
	VersionV2      = 2
	CurrentVersion = VersionV2
)

// Document is the persisted envelope. V1 documents carry no steps.
type Document struct {
	Version    int               `json:"version"`
	Steps      []model.FormStep  `json:"steps"`
	Components []model.Component `json:"components"`
}

// NewDocument wraps s in the current-version envelope.
func NewDocument(s model.FormSchema) Document {
	steps := s.Steps
	if steps == nil {
		steps = []model.FormStep{}
	}
	components := s.Components
	if components == nil {
		components = []model.Component{}
	}
	return Document{Version: CurrentVersion, Steps: steps, Components: components}
}

// Serialize encodes s as a compact V2 document.
func Serialize(s model.FormSchema) ([]byte, error) {
	data, err := json.Marshal(NewDocument(s))
	if err != nil {
		return nil, fmt.Errorf("schema: serialize: %w", err)
	}
	return data, nil
}

// SerializeIndent encodes s as an indented V2 document.
func SerializeIndent(s model.FormSchema) ([]byte, error) {
	data, err := json.MarshalIndent(NewDocument(s), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("schema: serialize: %w", err)
	}
	return data, nil
}

// Parse decodes a V1 or V2 JSON document and returns the normalized schema.
// Failures are reported as *ParseError.
func Parse(data []byte) (model.FormSchema, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return model.FormSchema{}, &ParseError{Reason: ReasonInvalidFormat, Err: ErrInvalidSchema, Cause: err}
	}
	if dec.More() {
		return model.FormSchema{}, &ParseError{Reason: ReasonInvalidFormat, Err: ErrInvalidSchema, Cause: fmt.Errorf("trailing data after document")}
	}
	return FromValue(raw)
}

// FromValue converts an already decoded generic document (maps, slices,
// float64 numbers) into a normalized schema.
func FromValue(raw any) (model.FormSchema, error) {
	doc, ok := raw.(map[string]any)
	if !ok {
		return model.FormSchema{}, invalid(ReasonInvalidFormat, "")
	}

	versionNum, ok := doc["version"].(float64)
	if !ok {
		return model.FormSchema{}, invalid(ReasonInvalidFormat, "version")
	}
	if versionNum != math.Trunc(versionNum) {
		return model.FormSchema{}, &ParseError{Reason: ReasonUnsupportedVersion, Path: "version", Err: ErrUnsupportedVersion}
	}

	switch int(versionNum) {
	case VersionV1:
		return parseV1(doc)
	case VersionV2:
		return parseV2(doc)
	default:
		return model.FormSchema{}, &ParseError{Reason: ReasonUnsupportedVersion, Path: "version", Err: ErrUnsupportedVersion}
	}
}

func parseV1(doc map[string]any) (model.FormSchema, error) {
	rawComponents, ok := doc["components"].([]any)
	if !ok {
		return model.FormSchema{}, invalid(ReasonInvalidFormat, "components")
	}
	fallback := model.DefaultStep()
	components, err := parseComponents(rawComponents, fallback.ID)
	if err != nil {
		return model.FormSchema{}, err
	}
	return Normalize(model.FormSchema{Steps: []model.FormStep{fallback}, Components: components}), nil
}

func parseV2(doc map[string]any) (model.FormSchema, error) {
	rawSteps, ok := doc["steps"].([]any)
	if !ok {
		return model.FormSchema{}, invalid(ReasonInvalidSteps, "steps")
	}
	rawComponents, ok := doc["components"].([]any)
	if !ok {
		return model.FormSchema{}, invalid(ReasonInvalidComponents, "components")
	}

	steps := make([]model.FormStep, 0, len(rawSteps))
	for idx, item := range rawSteps {
		step, ok := parseStep(item, idx)
		if !ok {
			return model.FormSchema{}, invalid(ReasonInvalidSteps, fmt.Sprintf("steps[%d]", idx))
		}
		steps = append(steps, step)
	}

	fallback := model.DefaultStepID
	if len(steps) > 0 {
		fallback = steps[0].ID
	}
	components, err := parseComponents(rawComponents, fallback)
	if err != nil {
		return model.FormSchema{}, err
	}
	return Normalize(model.FormSchema{Steps: steps, Components: components}), nil
}

func parseStep(item any, idx int) (model.FormStep, bool) {
	record, ok := item.(map[string]any)
	if !ok {
		return model.FormStep{}, false
	}
	id, ok := record["id"].(string)
	if !ok {
		return model.FormStep{}, false
	}
	title, ok := record["title"].(string)
	if !ok {
		return model.FormStep{}, false
	}
	order, ok := optionalOrder(record, idx)
	if !ok {
		return model.FormStep{}, false
	}
	return model.FormStep{ID: id, Title: title, Order: order}, true
}

func parseComponents(items []any, fallbackStep string) ([]model.Component, error) {
	out := make([]model.Component, 0, len(items))
	for idx, item := range items {
		path := fmt.Sprintf("components[%d]", idx)
		record, ok := item.(map[string]any)
		if !ok {
			return nil, invalid(ReasonInvalidComponents, path)
		}
		id, ok := record["id"].(string)
		if !ok {
			return nil, invalid(ReasonInvalidComponents, path+".id")
		}
		typ, ok := record["type"].(string)
		if !ok {
			return nil, invalid(ReasonInvalidComponents, path+".type")
		}
		rawProps, ok := record["props"].(map[string]any)
		if !ok {
			return nil, invalid(ReasonInvalidComponents, path+".props")
		}
		order, ok := optionalOrder(record, idx)
		if !ok {
			return nil, invalid(ReasonInvalidComponents, path+".order")
		}
		stepID := fallbackStep
		if rawStep, present := record["stepId"]; present && rawStep != nil {
			s, ok := rawStep.(string)
			if !ok {
				return nil, invalid(ReasonInvalidComponents, path+".stepId")
			}
			stepID = s
		}
		children, ok := optionalStrings(record["children"])
		if !ok {
			return nil, invalid(ReasonInvalidComponents, path+".children")
		}

		props, err := model.PropsFromMap(model.FieldType(typ), rawProps)
		if err != nil {
			return nil, &ParseError{Reason: ReasonInvalidComponents, Path: path + ".props", Err: ErrInvalidSchema, Cause: err}
		}

		out = append(out, model.Component{
			ID:       id,
			Type:     model.FieldType(typ),
			Props:    props,
			Order:    order,
			StepID:   stepID,
			Children: children,
		})
	}
	return out, nil
}

// Order bounds accepted by the codec. Orders are ranks, so anything outside
// the int32 range is rejected rather than converted.
const (
	minOrder = math.MinInt32
	maxOrder = math.MaxInt32
)

func optionalOrder(record map[string]any, fallback int) (int, bool) {
	raw, present := record["order"]
	if !present || raw == nil {
		return fallback, true
	}
	n, ok := raw.(float64)
	if !ok || math.IsNaN(n) || n < minOrder || n > maxOrder {
		return 0, false
	}
	return int(n), true
}

func optionalStrings(raw any) ([]string, bool) {
	if raw == nil {
		return nil, true
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	if len(items) == 0 {
		return nil, true
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
