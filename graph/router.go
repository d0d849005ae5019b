package graph

import (
	"context"
	"log/slog"

	"github.com/nexxia-ai/nimbus/ai"
)

const defaultSystemPrompt = `You are an assistant that helps users build Jupyter notebooks for climate data retrieval and index computation. Use the available tools when the user asks for data ingestion, SPI calculation or notebook edits. Answer directly when no tool applies.`

// Router is the top-level dispatcher. It asks the model which tool, if any,
// should handle the next step of the conversation.
type Router struct {
	model        *ai.Model
	systemPrompt string
}

func NewRouter(model *ai.Model) *Router {
	return &Router{model: model, systemPrompt: defaultSystemPrompt}
}

func (r *Router) WithSystemPrompt(prompt string) *Router {
	r.systemPrompt = prompt
	return r
}

// Route calls the model with the conversation history and all registered
// tool descriptors. When the model proposes several tool calls only the
// first is kept; the rest are dropped for this turn. Families run one call
// at a time, so a second call in the same response has nowhere to go.
func (r *Router) Route(ctx context.Context, history []ai.Message, tools []ai.Tool) (ai.AIMessage, *ai.ToolCall, error) {
	messages := make([]ai.Message, 0, len(history)+1)
	messages = append(messages, ai.SystemMessage{Role: ai.SystemRole, Content: r.systemPrompt})
	messages = append(messages, history...)

	response, err := r.model.Call(ctx, messages, tools)
	if err != nil {
		return ai.AIMessage{}, nil, err
	}
	if len(response.ToolCalls) == 0 {
		return response, nil, nil
	}
	if len(response.ToolCalls) > 1 {
		slog.Debug("dropping extra tool calls", "kept", response.ToolCalls[0].Name, "dropped", len(response.ToolCalls)-1)
	}
	response.ToolCalls = response.ToolCalls[:1]
	return response, &response.ToolCalls[0], nil
}
