package schema

import "github.com/bpxgo/validator/pkg/quantity"

func putFloat(m map[string]any, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}

func putInt(m map[string]any, key string, v *int) {
	if v != nil {
		m[key] = float64(*v)
	}
}

func putString(m map[string]any, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}

func putQuantity(m map[string]any, key string, q *quantity.Quantity) {
	if q != nil {
		m[key] = q.Raw()
	}
}

func putFloats(m map[string]any, key string, fs []float64) {
	if fs == nil {
		return
	}
	out := make([]any, len(fs))
	for i, f := range fs {
		out[i] = f
	}
	m[key] = out
}
