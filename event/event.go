// Package event defines the notifications a thread emits while it processes
// a turn. The caller ranges over the thread's event channel and switches on
// the concrete type:
//
//	for ev := range th.Events() {
//		switch e := ev.(type) {
//		case *ContentEvent:
//			fmt.Println(e.Content)
//		case *ToolCallEvent:
//			fmt.Println(e.ToolName)
//		case *ToolResponseEvent:
//			fmt.Println(e.Content)
//		case *InterruptEvent:
//			// surface e.Prompt to the user, then resume the thread
//		case *ErrorEvent:
//			fmt.Println(e.Err)
//		}
//	}
package event

type Event interface {
	ID() string
}

// ContentEvent carries assistant text produced during a turn.
type ContentEvent struct {
	ThreadID string
	Content  string
}

func (e *ContentEvent) ID() string { return e.ThreadID }

// ToolCallEvent is emitted when a tool begins resolving a call.
type ToolCallEvent struct {
	ThreadID string
	CallID   string
	ToolName string
	Args     map[string]any
}

func (e *ToolCallEvent) ID() string { return e.ThreadID }

// ToolResponseEvent is emitted after a tool finished executing.
type ToolResponseEvent struct {
	ThreadID string
	CallID   string
	ToolName string
	Content  string
}

func (e *ToolResponseEvent) ID() string { return e.ThreadID }

// InterruptEvent is emitted when a turn suspends waiting for user input.
// Kind distinguishes validation errors from execution and output
// confirmations. Pending holds the argument values resolved so far.
type InterruptEvent struct {
	ThreadID    string
	CallID      string
	ToolName    string
	Kind        string
	Prompt      string
	Fields      []string
	Pending     map[string]any
	ResponseKey string
}

func (e *InterruptEvent) ID() string { return e.ThreadID }

type ErrorEvent struct {
	ThreadID string
	Err      error
}

func (e *ErrorEvent) ID() string { return e.ThreadID }
