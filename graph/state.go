package graph

import (
	"encoding/json"

	"github.com/nexxia-ai/nimbus/ai"
)

// State is the conversation message list of one thread. Append-only, except
// that a stale tool-call placeholder is collapsed in place when a resume
// supersedes its arguments.
type State struct {
	messages []ai.Message
}

func NewState() *State {
	return &State{}
}

func (s *State) Append(m ai.Message) {
	s.messages = append(s.messages, m)
}

// History returns a copy so callers cannot mutate the state behind the
// thread's back.
func (s *State) History() []ai.Message {
	out := make([]ai.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *State) Len() int {
	return len(s.messages)
}

// RewriteToolCall replaces the argument payload of the assistant message
// that proposed the given call. Keeping the placeholder current means a
// later re-resolve sees the corrected values, not the stale ones.
func (s *State) RewriteToolCall(callID string, args Args) {
	encoded, err := json.Marshal(args)
	if err != nil {
		return
	}
	for i := len(s.messages) - 1; i >= 0; i-- {
		aiMsg, ok := s.messages[i].(ai.AIMessage)
		if !ok {
			continue
		}
		for j, tc := range aiMsg.ToolCalls {
			if tc.ID == callID {
				aiMsg.ToolCalls[j].Args = string(encoded)
				s.messages[i] = aiMsg
				return
			}
		}
	}
}
