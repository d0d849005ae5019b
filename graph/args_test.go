package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgsHas(t *testing.T) {
	args := Args{"present": "x", "null": nil}
	assert.True(t, args.Has("present"))
	assert.False(t, args.Has("null"), "explicit null counts as absent")
	assert.False(t, args.Has("missing"))
}

func TestArgsStrings(t *testing.T) {
	args := Args{
		"list":   []any{"a", "b"},
		"single": "only",
		"typed":  []string{"x"},
	}
	assert.Equal(t, []string{"a", "b"}, args.Strings("list"))
	assert.Equal(t, []string{"only"}, args.Strings("single"), "bare string becomes a one-element list")
	assert.Equal(t, []string{"x"}, args.Strings("typed"))
	assert.Nil(t, args.Strings("missing"))
}

func TestArgsFloats(t *testing.T) {
	args := Args{
		"numbers": []any{float64(1.5), float64(2)},
		"mixed":   []any{float64(1), "2.5"},
		"typed":   []float64{3, 4},
		"bad":     []any{"not a number"},
		"scalar":  "1.5",
	}
	assert.Equal(t, []float64{1.5, 2}, args.Floats("numbers"))
	assert.Equal(t, []float64{1, 2.5}, args.Floats("mixed"), "numeric strings coerce")
	assert.Equal(t, []float64{3, 4}, args.Floats("typed"))
	assert.Nil(t, args.Floats("bad"))
	assert.Nil(t, args.Floats("scalar"))
}

func TestArgsInts(t *testing.T) {
	args := Args{
		"years":      []any{float64(1981), float64(2010)},
		"fractional": []any{float64(1981.5), float64(2010)},
		"typed":      []int{1, 2},
	}
	assert.Equal(t, []int{1981, 2010}, args.Ints("years"))
	assert.Nil(t, args.Ints("fractional"), "fractional values are rejected")
	assert.Equal(t, []int{1, 2}, args.Ints("typed"))
}

func TestArgsPair(t *testing.T) {
	args := Args{
		"months": []any{"2025-01", "2025-02"},
		"typed":  []string{"a", "b"},
		"short":  []any{"only-one"},
	}
	start, end, ok := args.Pair("months")
	assert.True(t, ok)
	assert.Equal(t, "2025-01", start)
	assert.Equal(t, "2025-02", end)

	start, end, ok = args.Pair("typed")
	assert.True(t, ok)
	assert.Equal(t, "a", start)
	assert.Equal(t, "b", end)

	_, _, ok = args.Pair("short")
	assert.False(t, ok)
	_, _, ok = args.Pair("missing")
	assert.False(t, ok)
}

func TestArgsClone(t *testing.T) {
	original := Args{"key": "value"}
	clone := original.Clone()
	clone["key"] = "changed"
	assert.Equal(t, "value", original["key"])
}

func TestParseToolCallArgs(t *testing.T) {
	args, err := ParseToolCallArgs(`{"name": "alpha", "area": [1, 2, 3, 4]}`)
	assert.NoError(t, err)
	assert.Equal(t, "alpha", args.String("name"))
	assert.Equal(t, []float64{1, 2, 3, 4}, args.Floats("area"))

	args, err = ParseToolCallArgs("")
	assert.NoError(t, err)
	assert.Empty(t, args)

	_, err = ParseToolCallArgs("not json")
	assert.Error(t, err)
}
