package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/nexxia-ai/nimbus/ai"
)

// AgentTool wraps an argument pipeline plus a side-effecting execute action.
// Instances are long-lived and hold no per-call state: confirmation flags
// live on the ToolCallRequest.
type AgentTool struct {
	Name        string
	Description string
	Schema      ToolSchema
	Validations []ValidationRule
	Inferences  []InferenceRule

	// Execute runs the side effect with fully resolved arguments and returns
	// the output mapping. Tools with ConfirmOutput set run in two passes:
	// the first produces call.Draft, the second (after confirmation) applies
	// the write.
	Execute func(ctx context.Context, call *ToolCallRequest, args Args) (map[string]any, error)

	// ConfirmOutput marks tools whose output is generated content requiring
	// review before it is written.
	ConfirmOutput bool

	// OnResume overrides the default resume behavior per interrupt kind.
	OnResume map[InterruptKind]ResumeHandler

	// Summary renders the confirm-execution prompt. Defaults to a plain
	// field listing.
	Summary func(args Args) string

	// OutputPrompt renders the confirm-output prompt from the stashed draft.
	OutputPrompt func(call *ToolCallRequest) string
}

// Outcome is the result of one Handle pass: either a tool result or an
// interrupt, never both.
type Outcome struct {
	Result    map[string]any
	Interrupt *Interrupt
}

// NewCall builds the call record for this tool. Output confirmation starts
// lowered only for tools that declare a review step.
func (t *AgentTool) NewCall(id string, args Args) *ToolCallRequest {
	call := NewToolCallRequest(id, t.Name, args)
	if t.ConfirmOutput {
		call.OutputConfirmed = false
	}
	return call
}

// Handle drives one pass of the tool state machine:
// resolve, confirm-execution gate, execute, confirm-output gate. It is
// re-entered from scratch on every resume, so corrections are re-validated.
func (t *AgentTool) Handle(ctx context.Context, call *ToolCallRequest) (*Outcome, error) {
	resolved, failure, err := t.resolve(ctx, call)
	if err != nil {
		// An inference failure is a schema gap, not bad user input. Log it
		// and surface a validation-style interrupt instead of failing the
		// turn. Naming the field lets the user answer with a bare value.
		slog.Error("inference failed", "tool", t.Name, "call", call.ID, "error", err)
		var fields []string
		var infErr *InferenceError
		if errors.As(err, &infErr) {
			fields = []string{infErr.Field}
		}
		return &Outcome{Interrupt: t.newInterrupt(call, ValidationError,
			fmt.Sprintf("Could not infer a value: %v. Please provide it explicitly.", err),
			fields, call.Args.Clone())}, nil
	}
	if failure != nil {
		return &Outcome{Interrupt: t.newInterrupt(call, ValidationError,
			failure.Message(), failure.Fields, call.Args.Clone())}, nil
	}

	call.Resolved = resolved

	if !call.ExecutionConfirmed {
		return &Outcome{Interrupt: t.newInterrupt(call, ConfirmExecution,
			t.summary(resolved), nil, resolved.Clone())}, nil
	}

	output, err := t.Execute(ctx, call, resolved)
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w", t.Name, err)
	}

	if t.ConfirmOutput && !call.OutputConfirmed {
		prompt := call.Draft
		if t.OutputPrompt != nil {
			prompt = t.OutputPrompt(call)
		}
		return &Outcome{Interrupt: t.newInterrupt(call, ConfirmOutput,
			prompt, nil, resolved.Clone())}, nil
	}

	return &Outcome{Result: output}, nil
}

// Resume folds the human answer into the call so the next Handle pass can
// retry from the gate that raised the interrupt.
func (t *AgentTool) Resume(call *ToolCallRequest, intr *Interrupt, response any) error {
	return t.resumeHandler(intr.Kind)(call, intr, response)
}

// AITool exposes the tool descriptor for the router's model call. Execution
// stays with the graph, so no Execute function is attached.
func (t *AgentTool) AITool() ai.Tool {
	return ai.Tool{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: t.Schema.JSONSchema(),
	}
}

func (t *AgentTool) newInterrupt(call *ToolCallRequest, kind InterruptKind, prompt string, fields []string, pending Args) *Interrupt {
	return &Interrupt{
		Kind:        kind,
		ToolName:    t.Name,
		CallID:      call.ID,
		Prompt:      prompt,
		Fields:      fields,
		Pending:     pending,
		ResponseKey: DefaultResponseKey,
	}
}

func (t *AgentTool) summary(args Args) string {
	if t.Summary != nil {
		return t.Summary(args)
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := fmt.Sprintf("About to run %s with:\n", t.Name)
	for _, k := range keys {
		out += fmt.Sprintf("  %s: %s\n", k, formatValue(args[k]))
	}
	out += "Proceed?"
	return out
}
