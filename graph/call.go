package graph

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ToolCallRequest is the mutable record of one tool invocation. The
// confirmation flags are call-scoped: every new request starts confirmed and
// only inference or an interrupt may lower a flag for this call. Nothing is
// shared between calls or threads.
type ToolCallRequest struct {
	ID       string
	ToolName string
	Args     Args

	// ExecutionConfirmed gates the side-effecting execute step. Lowered by
	// inference when a substituted value was not human-verified.
	ExecutionConfirmed bool

	// OutputConfirmed gates emission of generated output. Starts false only
	// for tools that declare a review step.
	OutputConfirmed bool

	// Resolved holds the pipeline output of the latest resolve pass.
	Resolved Args

	// Draft stashes unconfirmed generated output between the confirm-output
	// interrupt and its resume.
	Draft string

	// humanConfirmed latches once the user answers a confirm-execution
	// interrupt. Resolution re-runs on every resume, so without the latch
	// an inference rule could lower the gate again and suspend the call
	// forever.
	humanConfirmed bool
}

func NewToolCallRequest(id, toolName string, args Args) *ToolCallRequest {
	if id == "" {
		id = uuid.NewString()
	}
	if args == nil {
		args = Args{}
	}
	return &ToolCallRequest{
		ID:                 id,
		ToolName:           toolName,
		Args:               args,
		ExecutionConfirmed: true,
		OutputConfirmed:    true,
	}
}

// Confirm raises the execution gate on behalf of the user and latches the
// answer for the rest of this call.
func (c *ToolCallRequest) Confirm() {
	c.ExecutionConfirmed = true
	c.humanConfirmed = true
}

// RequireConfirmation lowers the execution gate, unless the user has
// already confirmed this call. Inference rules call this when they
// substitute a value the user has not seen.
func (c *ToolCallRequest) RequireConfirmation() {
	if !c.humanConfirmed {
		c.ExecutionConfirmed = false
	}
}

// ParseToolCallArgs decodes the raw JSON argument object of a model tool
// call.
func ParseToolCallArgs(raw string) (Args, error) {
	if raw == "" {
		return Args{}, nil
	}
	var args Args
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("decode tool call args: %w", err)
	}
	return args, nil
}
