package schema

import (
	"encoding/json"
	"fmt"
	"math"
)

// Normalize converts a decoded YAML or JSON value into the generic shape
// used throughout this package: Object for mappings, []any for sequences,
// and scalars. Plain maps are ordered by key; mappings with non-string keys
// are stringified.
func Normalize(v any) any {
	switch t := v.(type) {
	case Object:
		out := make(Object, len(t))
		for i, f := range t {
			out[i] = Field{Name: f.Name, Value: Normalize(f.Value)}
		}
		return out
	case map[string]any:
		out := ObjectFromMap(t)
		for i := range out {
			out[i].Value = Normalize(out[i].Value)
		}
		return out
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = val
		}
		return Normalize(m)
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	default:
		return v
	}
}

// toFloat reads a numeric keyword value.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// toInt reads a non-negative integral keyword value such as minItems.
func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f < 0 || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
