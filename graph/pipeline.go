package graph

import (
	"context"
	"fmt"
	"strings"
)

// ValidationRule checks one field against the entire argument mapping, so
// cross-field rules like "end time must be after start time" are expressed
// the same way as single-field ones. An empty string means the rule passed.
type ValidationRule struct {
	Field string
	Check func(args Args) string
}

// InferenceRule computes a value for Field when it is absent, or on every
// call when AlwaysRun is set (alias normalization, geocoding). Rules run in
// schema order and see the values earlier rules produced. A rule may call
// call.RequireConfirmation when the substituted value is not human-verified.
type InferenceRule struct {
	Field     string
	AlwaysRun bool
	Infer     func(ctx context.Context, call *ToolCallRequest, args Args) (any, error)
}

// InferenceError reports which field's inference rule failed, so the
// resulting interrupt can name the field and accept a plain-text
// correction for it.
type InferenceError struct {
	Field string
	Err   error
}

func (e *InferenceError) Error() string { return fmt.Sprintf("infer %s: %v", e.Field, e.Err) }

func (e *InferenceError) Unwrap() error { return e.Err }

// ValidationFailure is a normal return value, not an error. It carries every
// failing rule message so the user gets one consolidated correction request.
type ValidationFailure struct {
	Fields   []string
	Messages []string
}

func (f *ValidationFailure) Message() string {
	return strings.Join(f.Messages, "\n")
}

// resolve runs the argument pipeline: validate every present field in schema
// order collecting all failures, then fill missing fields by inference.
func (t *AgentTool) resolve(ctx context.Context, call *ToolCallRequest) (Args, *ValidationFailure, error) {
	args := call.Args.Clone()

	failure := &ValidationFailure{}
	seen := map[string]bool{}
	for _, field := range t.Schema.Fields {
		if !args.Has(field.Name) {
			continue
		}
		for _, rule := range t.Validations {
			if rule.Field != field.Name {
				continue
			}
			if msg := rule.Check(args); msg != "" {
				failure.Messages = append(failure.Messages, msg)
				if !seen[field.Name] {
					seen[field.Name] = true
					failure.Fields = append(failure.Fields, field.Name)
				}
			}
		}
	}
	if len(failure.Messages) > 0 {
		return nil, failure, nil
	}

	for _, field := range t.Schema.Fields {
		rule, ok := t.inferenceFor(field.Name)
		if !ok {
			continue
		}
		if args.Has(field.Name) && !rule.AlwaysRun {
			continue
		}
		value, err := rule.Infer(ctx, call, args)
		if err != nil {
			return nil, nil, &InferenceError{Field: field.Name, Err: err}
		}
		args[field.Name] = value
	}

	return args, nil, nil
}

func (t *AgentTool) inferenceFor(field string) (InferenceRule, bool) {
	for _, rule := range t.Inferences {
		if rule.Field == field {
			return rule, true
		}
	}
	return InferenceRule{}, false
}
