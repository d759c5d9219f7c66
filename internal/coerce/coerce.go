// Package coerce converts loosely typed field values (decoded JSON, prompt
// answers, HTTP payloads) into strings, numbers and booleans the way a
// browser form would.
package coerce

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// String renders scalars; nil and composite values render as "".
func String(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return FormatNumber(f)
		}
		return v.String()
	}
	if f, ok := numeric(value); ok {
		return FormatNumber(f)
	}
	return ""
}

// Number converts value to a finite float64. Numbers pass through, strings
// are parsed after trimming; blank strings, booleans and composites fail.
func Number(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case nil, bool:
		return 0, false
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		n, ok := numeric(value)
		if !ok {
			return 0, false
		}
		f = n
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsNumber reports whether value is a Go numeric type (not a numeric string).
func IsNumber(value any) bool {
	if _, ok := value.(json.Number); ok {
		return true
	}
	_, ok := numeric(value)
	return ok
}

// IsEmpty reports nil, whitespace-only strings and empty lists.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return rv.Len() == 0
	}
	return false
}

// Truthy applies script-style truthiness: false, 0, NaN, "" and nil are
// false; everything else, including empty lists and maps, is true.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	}
	if f, ok := numeric(value); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// FormatNumber renders f in shortest round-trip form: 5 and 5.0 both render
// "5", large and tiny magnitudes use exponent notation ("1e+21", "1e-7").
func FormatNumber(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		out := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, ok := strings.Cut(out, "e")
		if !ok {
			return out
		}
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func numeric(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
