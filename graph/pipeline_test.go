package graph

import (
	"context"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRunsInferenceInSchemaOrder(t *testing.T) {
	var order []string
	tool := &AgentTool{
		Name: "ordered_tool",
		Schema: ToolSchema{Fields: []Field{
			{Name: "first", Type: "string"},
			{Name: "second", Type: "string"},
			{Name: "third", Type: "string"},
		}},
		Inferences: []InferenceRule{
			// Declared out of schema order on purpose.
			{Field: "third", Infer: func(ctx context.Context, call *ToolCallRequest, args Args) (any, error) {
				order = append(order, "third")
				return args.String("first") + args.String("second"), nil
			}},
			{Field: "first", Infer: func(ctx context.Context, call *ToolCallRequest, args Args) (any, error) {
				order = append(order, "first")
				return "a", nil
			}},
			{Field: "second", Infer: func(ctx context.Context, call *ToolCallRequest, args Args) (any, error) {
				order = append(order, "second")
				return "b", nil
			}},
		},
	}

	call := tool.NewCall("c1", Args{})
	resolved, failure, err := tool.resolve(context.Background(), call)
	require.NoError(t, err)
	require.Nil(t, failure)
	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Equal(t, "ab", resolved["third"], "later rules see earlier inferred values")
}

func TestResolveSkipsPresentFieldsUnlessAlwaysRun(t *testing.T) {
	tool := &AgentTool{
		Name: "skip_tool",
		Schema: ToolSchema{Fields: []Field{
			{Name: "kept", Type: "string"},
			{Name: "normalized", Type: "string"},
		}},
		Inferences: []InferenceRule{
			{Field: "kept", Infer: func(ctx context.Context, call *ToolCallRequest, args Args) (any, error) {
				return "inferred", nil
			}},
			{Field: "normalized", AlwaysRun: true, Infer: func(ctx context.Context, call *ToolCallRequest, args Args) (any, error) {
				return "normal(" + args.String("normalized") + ")", nil
			}},
		},
	}

	call := tool.NewCall("c1", Args{"kept": "user-value", "normalized": "raw"})
	resolved, failure, err := tool.resolve(context.Background(), call)
	require.NoError(t, err)
	require.Nil(t, failure)
	assert.Equal(t, "user-value", resolved["kept"])
	assert.Equal(t, "normal(raw)", resolved["normalized"])
}

func TestResolveDoesNotMutateCallArgs(t *testing.T) {
	tool := &AgentTool{
		Name:   "pure_tool",
		Schema: ToolSchema{Fields: []Field{{Name: "missing", Type: "string"}}},
		Inferences: []InferenceRule{
			{Field: "missing", Infer: func(ctx context.Context, call *ToolCallRequest, args Args) (any, error) {
				return "filled", nil
			}},
		},
	}

	call := tool.NewCall("c1", Args{"other": "x"})
	resolved, _, err := tool.resolve(context.Background(), call)
	require.NoError(t, err)
	assert.Equal(t, "filled", resolved["missing"])
	assert.NotContains(t, call.Args, "missing", "resolve works on a clone of the raw args")
}

// Resolving the same raw arguments twice yields identical output: the
// pipeline has no hidden per-call state.
func TestResolveIsDeterministic(t *testing.T) {
	tool := &AgentTool{
		Name: "det_tool",
		Schema: ToolSchema{Fields: []Field{
			{Name: "name", Type: "string"},
			{Name: "size", Type: "string"},
		}},
		Validations: []ValidationRule{
			{Field: "name", Check: func(args Args) string {
				if len(args.String("name")) > 10 {
					return "Invalid name: too long."
				}
				return ""
			}},
		},
		Inferences: []InferenceRule{
			{Field: "size", Infer: func(ctx context.Context, call *ToolCallRequest, args Args) (any, error) {
				return len(args.String("name")), nil
			}},
		},
	}

	properties := gopter.NewProperties(nil)
	properties.Property("same args resolve to same output", prop.ForAll(
		func(name string) bool {
			first := tool.NewCall("a", Args{"name": name})
			second := tool.NewCall("b", Args{"name": name})
			r1, f1, err1 := tool.resolve(context.Background(), first)
			r2, f2, err2 := tool.resolve(context.Background(), second)
			if err1 != nil || err2 != nil {
				return false
			}
			if (f1 == nil) != (f2 == nil) {
				return false
			}
			if f1 != nil {
				return reflect.DeepEqual(f1.Messages, f2.Messages)
			}
			return reflect.DeepEqual(r1, r2)
		},
		gen.AlphaString(),
	))
	properties.TestingRun(t)
}
