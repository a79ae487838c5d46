package tags

import (
	"encoding/json"
	"math"
)

// Sanitize validates a raw tag mapping as returned by the detection service.
// An entry survives only if its value is a finite, non-negative number.
// Sanitize never fails; unusable input yields an empty map.
func Sanitize(raw map[string]any) TagMap {
	safe := make(TagMap, len(raw))
	for k, v := range raw {
		count, ok := numericValue(v)
		if !ok {
			continue
		}
		if math.IsNaN(count) || math.IsInf(count, 0) || count < 0 {
			continue
		}
		safe[k] = count
	}
	return safe
}

// numericValue coerces the value types a JSON decode or caller may hand us.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
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
