package graph

import (
	"fmt"
	"strconv"
)

// Args is the raw keyword-argument mapping a tool call carries. Values come
// straight from JSON decoding, so numbers are float64 and lists are []any.
type Args map[string]any

func (a Args) Clone() Args {
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Has reports whether the field is present with a non-nil value.
func (a Args) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

func (a Args) String(key string) string {
	if s, ok := a[key].(string); ok {
		return s
	}
	return ""
}

// Strings coerces a value to a string slice. A bare string becomes a
// one-element slice, matching how models often pass single-item lists.
func (a Args) Strings(key string) []string {
	switch v := a[key].(type) {
	case []string:
		return v
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Floats coerces a value to a float slice, accepting JSON numbers, ints and
// numeric strings.
func (a Args) Floats(key string) []float64 {
	list, ok := a[key].([]any)
	if !ok {
		if f, ok := a[key].([]float64); ok {
			return f
		}
		return nil
	}
	out := make([]float64, 0, len(list))
	for _, item := range list {
		switch n := item.(type) {
		case float64:
			out = append(out, n)
		case int:
			out = append(out, float64(n))
		case string:
			f, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil
			}
			out = append(out, f)
		default:
			return nil
		}
	}
	return out
}

// Ints coerces a value to an int slice. JSON numbers with a fractional part
// are rejected.
func (a Args) Ints(key string) []int {
	list, ok := a[key].([]any)
	if !ok {
		if ints, ok := a[key].([]int); ok {
			return ints
		}
		return nil
	}
	out := make([]int, 0, len(list))
	for _, item := range list {
		switch n := item.(type) {
		case float64:
			if n != float64(int(n)) {
				return nil
			}
			out = append(out, int(n))
		case int:
			out = append(out, n)
		default:
			return nil
		}
	}
	return out
}

// Pair returns the two elements of a list value as strings.
func (a Args) Pair(key string) (string, string, bool) {
	list, ok := a[key].([]any)
	if !ok || len(list) != 2 {
		if s, ok := a[key].([]string); ok && len(s) == 2 {
			return s[0], s[1], true
		}
		return "", "", false
	}
	first, ok1 := list[0].(string)
	second, ok2 := list[1].(string)
	return first, second, ok1 && ok2
}

func formatValue(v any) string {
	return fmt.Sprintf("%v", v)
}
