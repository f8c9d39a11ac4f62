package section

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

type number interface {
	constraints.Integer | constraints.Float
}

func floatsOf[T number](xs []T) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}

// typedFloats copies a typed numeric slice, as built by Go callers rather
// than a decoder, into float64s.
func typedFloats(v any) ([]float64, bool) {
	switch xs := v.(type) {
	case []float64:
		return floatsOf(xs), true
	case []float32:
		return floatsOf(xs), true
	case []int:
		return floatsOf(xs), true
	case []int32:
		return floatsOf(xs), true
	case []int64:
		return floatsOf(xs), true
	case []uint:
		return floatsOf(xs), true
	case []uint32:
		return floatsOf(xs), true
	case []uint64:
		return floatsOf(xs), true
	default:
		return nil, false
	}
}

// ToFloat converts any Go numeric value to float64. Booleans and numeric
// strings are not numbers.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// ToInt converts an integral numeric value to int.
func ToInt(v any) (int, bool) {
	f, ok := ToFloat(v)
	if !ok || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// IsNumber reports whether v is a Go numeric value.
func IsNumber(v any) bool {
	_, ok := ToFloat(v)
	return ok
}

// IsSequence reports whether v is a raw sequence.
func IsSequence(v any) bool {
	if _, ok := v.([]any); ok {
		return true
	}
	_, ok := typedFloats(v)
	return ok
}

// TypeName names the raw type of v the way diagnostics print it.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "str"
	case map[string]any:
		return "dict"
	case []any:
		return "list"
	default:
		if _, ok := typedFloats(v); ok {
			return "list"
		}
		if IsNumber(v) {
			return "float"
		}
		return fmt.Sprintf("%T", v)
	}
}

// Describe renders a raw value for a diagnostic.
func Describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return "'" + x + "'"
	default:
		return fmt.Sprint(v)
	}
}
