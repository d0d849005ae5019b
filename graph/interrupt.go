package graph

import (
	"errors"
	"fmt"
	"strings"
)

type InterruptKind string

const (
	ValidationError  InterruptKind = "validation-error"
	ConfirmExecution InterruptKind = "confirm-execution"
	ConfirmOutput    InterruptKind = "confirm-output"
)

// DefaultResponseKey names the resume value when an interrupt does not
// declare its own key.
const DefaultResponseKey = "response"

// ErrRejected is returned by a resume handler when the user declined the
// pending action. The thread cancels the call instead of retrying it.
var ErrRejected = errors.New("rejected by user")

// Interrupt is the suspension signal a tool raises when it cannot proceed
// autonomously. It is created by the handler, surfaced to the front-end,
// consumed by the matching resume, then discarded.
type Interrupt struct {
	Kind        InterruptKind
	ToolName    string
	CallID      string
	Prompt      string
	Fields      []string
	Pending     Args
	ResponseKey string
}

// ResumeHandler folds the human response into the pending call before the
// handler retries it. Handlers patch call.Args or flip a confirmation flag;
// they never execute anything themselves.
type ResumeHandler func(call *ToolCallRequest, intr *Interrupt, response any) error

// resumeHandler picks the tool's override for the interrupt kind, falling
// back to the default behavior.
func (t *AgentTool) resumeHandler(kind InterruptKind) ResumeHandler {
	if h, ok := t.OnResume[kind]; ok {
		return h
	}
	switch kind {
	case ValidationError:
		return resumeValidationError
	case ConfirmExecution:
		return resumeConfirmExecution
	case ConfirmOutput:
		return resumeConfirmOutput
	}
	return func(call *ToolCallRequest, intr *Interrupt, response any) error {
		return fmt.Errorf("no resume handler for interrupt kind %q", kind)
	}
}

// resumeValidationError overwrites the offending fields with the corrected
// values. Corrections are re-validated on retry, never trusted.
func resumeValidationError(call *ToolCallRequest, intr *Interrupt, response any) error {
	switch v := response.(type) {
	case map[string]any:
		for k, value := range v {
			call.Args[k] = value
		}
		return nil
	case string:
		if len(intr.Fields) == 1 {
			call.Args[intr.Fields[0]] = v
			return nil
		}
		return fmt.Errorf("correction for %d fields must be a mapping", len(intr.Fields))
	}
	return fmt.Errorf("unsupported correction type %T", response)
}

// resumeConfirmExecution keeps the previously resolved arguments. A plain
// affirmative raises the flag; a mapping patches the pending values, which
// counts as human-verified.
func resumeConfirmExecution(call *ToolCallRequest, intr *Interrupt, response any) error {
	if patch, ok := response.(map[string]any); ok {
		call.Args = intr.Pending.Clone()
		for k, v := range patch {
			call.Args[k] = v
		}
		call.Confirm()
		return nil
	}
	if isAffirmative(response) {
		call.Args = intr.Pending.Clone()
		call.Confirm()
		return nil
	}
	return ErrRejected
}

func resumeConfirmOutput(call *ToolCallRequest, intr *Interrupt, response any) error {
	if isAffirmative(response) {
		call.Args = intr.Pending.Clone()
		call.OutputConfirmed = true
		return nil
	}
	return ErrRejected
}

func isAffirmative(response any) bool {
	switch v := response.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "y", "yes", "ok", "okay", "confirm", "confirmed", "proceed", "true", "si":
			return true
		}
	}
	return false
}
