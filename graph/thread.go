package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nexxia-ai/nimbus/ai"
	"github.com/nexxia-ai/nimbus/event"
)

var (
	// ErrSuspended is returned by Send while an interrupt is pending. The
	// caller must Resume first.
	ErrSuspended = errors.New("thread is suspended waiting for a resume")

	// ErrNotSuspended is returned by Resume when no interrupt is pending.
	ErrNotSuspended = errors.New("thread has no pending interrupt")

	errTooManyCalls = errors.New("model call limit reached for this turn")
)

const (
	defaultMaxCalls  = 16
	eventsBufferSize = 128
)

// Thread is one conversation: its message state, its parked interrupt and
// its event stream. A thread processes turns synchronously; suspension is a
// checkpointed hand-off, not a blocking wait. Callers run one Send or Resume
// at a time per thread.
type Thread struct {
	ID     string
	UserID string

	graph      *Graph
	state      *State
	parked     *Interrupt
	parkedCall *ToolCallRequest
	events     chan event.Event
	maxCalls   int
	log        *slog.Logger
}

func newThread(id, userID string, g *Graph) *Thread {
	return &Thread{
		ID:       id,
		UserID:   userID,
		graph:    g,
		state:    NewState(),
		events:   make(chan event.Event, eventsBufferSize),
		maxCalls: defaultMaxCalls,
		log:      slog.With("thread", id, "user", userID),
	}
}

// Events exposes the thread's notification stream. The caller drains it
// while or after driving the thread.
func (t *Thread) Events() <-chan event.Event {
	return t.events
}

// Suspended reports whether the thread is parked on an interrupt.
func (t *Thread) Suspended() bool {
	return t.parked != nil
}

// Pending returns the parked interrupt, or nil.
func (t *Thread) Pending() *Interrupt {
	return t.parked
}

func (t *Thread) History() []ai.Message {
	return t.state.History()
}

// Send processes one user turn: route, run at most one tool call, loop back
// to the router until it answers with free text or an interrupt parks the
// thread.
func (t *Thread) Send(ctx context.Context, text string) error {
	if t.parked != nil {
		return ErrSuspended
	}
	t.state.Append(ai.UserMessage{Role: ai.UserRole, Content: text})
	return t.runLoop(ctx)
}

// Resume re-enters a suspended thread with the human answer to the parked
// interrupt. The answer is folded into the pending call and the tool is
// retried from scratch, so corrections are re-validated.
func (t *Thread) Resume(ctx context.Context, response any) error {
	if t.parked == nil {
		return ErrNotSuspended
	}
	intr, call := t.parked, t.parkedCall
	t.parked, t.parkedCall = nil, nil

	family, ok := t.graph.family(call.ToolName)
	if !ok {
		return fmt.Errorf("no tool family for %s", call.ToolName)
	}

	if err := family.Tool.Resume(call, intr, response); err != nil {
		if errors.Is(err, ErrRejected) {
			t.log.Info("tool call rejected by user", "tool", call.ToolName, "call", call.ID)
			t.appendToolMessage(call.ID, "The user declined this action. It was not executed.")
			return t.runLoop(ctx)
		}
		t.queueEvent(&event.ErrorEvent{ThreadID: t.ID, Err: err})
		// park again, the interrupt is still unanswered
		t.parked, t.parkedCall = intr, call
		return err
	}

	t.state.RewriteToolCall(call.ID, call.Args)

	done, err := t.runCall(ctx, family, call)
	if err != nil || done {
		return err
	}
	return t.runLoop(ctx)
}

// ResumeValues resolves the interrupt's declared response key from a value
// mapping before resuming. Front-ends that collect structured form answers
// use this entry point.
func (t *Thread) ResumeValues(ctx context.Context, values map[string]any) error {
	if t.parked == nil {
		return ErrNotSuspended
	}
	key := t.parked.ResponseKey
	if key == "" {
		key = DefaultResponseKey
	}
	if v, ok := values[key]; ok {
		return t.Resume(ctx, v)
	}
	return t.Resume(ctx, values)
}

// runLoop drives router turns until free text ends the turn or a tool
// interrupt parks the thread.
func (t *Thread) runLoop(ctx context.Context) error {
	for calls := 0; calls < t.maxCalls; calls++ {
		aiMsg, toolCall, err := t.graph.router.Route(ctx, t.state.History(), t.graph.Tools())
		if err != nil {
			t.queueEvent(&event.ErrorEvent{ThreadID: t.ID, Err: err})
			return err
		}
		t.state.Append(aiMsg)

		if toolCall == nil {
			t.queueEvent(&event.ContentEvent{ThreadID: t.ID, Content: aiMsg.Content})
			return nil
		}

		if family, ok := t.graph.family(toolCall.Name); ok {
			args, err := ParseToolCallArgs(toolCall.Args)
			if err != nil {
				t.appendToolMessage(toolCall.ID, fmt.Sprintf("error: %v", err))
				continue
			}
			call := family.Tool.NewCall(toolCall.ID, args)
			done, err := t.runCall(ctx, family, call)
			if err != nil || done {
				return err
			}
			continue
		}

		if ext, ok := t.graph.externalTool(toolCall.Name); ok {
			t.runExternal(toolCall, ext)
			continue
		}

		t.log.Error("model requested unknown tool", "tool", toolCall.Name)
		t.appendToolMessage(toolCall.ID, fmt.Sprintf("error: unknown tool %s", toolCall.Name))
	}
	t.queueEvent(&event.ErrorEvent{ThreadID: t.ID, Err: errTooManyCalls})
	return errTooManyCalls
}

// runCall drives one Handle pass. done reports that the turn is over, either
// because the thread parked on an interrupt or the tool failed terminally.
func (t *Thread) runCall(ctx context.Context, family *Family, call *ToolCallRequest) (bool, error) {
	ctx = WithUser(ctx, t.UserID)
	t.queueEvent(&event.ToolCallEvent{
		ThreadID: t.ID,
		CallID:   call.ID,
		ToolName: call.ToolName,
		Args:     call.Args,
	})

	outcome, err := family.Tool.Handle(ctx, call)
	if err != nil {
		t.log.Error("tool execution failed", "tool", call.ToolName, "call", call.ID, "error", err)
		t.appendToolMessage(call.ID, fmt.Sprintf("error: %v", err))
		t.queueEvent(&event.ErrorEvent{ThreadID: t.ID, Err: err})
		return true, err
	}

	if outcome.Interrupt != nil {
		t.parked = outcome.Interrupt
		t.parkedCall = call
		t.log.Info("turn suspended", "tool", call.ToolName, "kind", outcome.Interrupt.Kind)
		t.queueEvent(&event.InterruptEvent{
			ThreadID:    t.ID,
			CallID:      call.ID,
			ToolName:    call.ToolName,
			Kind:        string(outcome.Interrupt.Kind),
			Prompt:      outcome.Interrupt.Prompt,
			Fields:      outcome.Interrupt.Fields,
			Pending:     outcome.Interrupt.Pending,
			ResponseKey: outcome.Interrupt.ResponseKey,
		})
		return true, nil
	}

	content := encodeResult(outcome.Result)
	t.appendToolMessage(call.ID, content)
	t.queueEvent(&event.ToolResponseEvent{
		ThreadID: t.ID,
		CallID:   call.ID,
		ToolName: call.ToolName,
		Content:  content,
	})
	return false, nil
}

func (t *Thread) runExternal(toolCall *ai.ToolCall, tool ai.Tool) {
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(toolCall.Args), &args); err != nil {
		t.appendToolMessage(toolCall.ID, fmt.Sprintf("error: invalid JSON args: %v", err))
		return
	}
	result, err := tool.Call(args)
	if err != nil {
		t.appendToolMessage(toolCall.ID, fmt.Sprintf("error: %v", err))
		return
	}
	content := result.Text()
	t.appendToolMessage(toolCall.ID, content)
	t.queueEvent(&event.ToolResponseEvent{
		ThreadID: t.ID,
		CallID:   toolCall.ID,
		ToolName: toolCall.Name,
		Content:  content,
	})
}

func (t *Thread) appendToolMessage(callID, content string) {
	t.state.Append(ai.ToolMessage{Role: ai.ToolRole, Content: content, ToolCallID: callID})
}

func (t *Thread) queueEvent(ev event.Event) {
	select {
	case t.events <- ev:
	default:
		t.log.Error("event queue full, dropping event", "event", fmt.Sprintf("%T", ev))
	}
}

func encodeResult(result map[string]any) string {
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(encoded)
}
