package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// ParseYAML decodes a V1 or V2 document written in YAML.
func ParseYAML(data []byte) (model.FormSchema, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return model.FormSchema{}, &ParseError{Reason: ReasonInvalidFormat, Err: ErrInvalidSchema, Cause: err}
	}
	return FromValue(jsonify(raw))
}

// ParseAny accepts JSON or YAML, trying JSON first.
func ParseAny(data []byte) (model.FormSchema, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return model.FormSchema{}, &ParseError{Reason: ReasonInvalidFormat, Err: ErrInvalidSchema, Cause: fmt.Errorf("document is empty")}
	}
	if json.Valid(trimmed) {
		return Parse(trimmed)
	}
	return ParseYAML(trimmed)
}

// jsonify converts YAML decoder output into the shapes encoding/json
// produces: string-keyed maps, []any and float64 numbers.
func jsonify(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = jsonify(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = jsonify(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for idx, item := range v {
			out[idx] = jsonify(item)
		}
		return out
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v.Format("2006-01-02")
		}
		return v.Format(time.RFC3339)
	default:
		return v
	}
}
