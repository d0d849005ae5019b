package ai

import (
	"context"
	"errors"
	"fmt"
)

var ErrNoChoices = errors.New("model returned no choices")

type StatusError struct {
	StatusCode   int
	Status       string
	ErrorMessage string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("status: %s, code: %d, error: %s", e.Status, e.StatusCode, e.ErrorMessage)
}

// Model is a generic model container that uses a function variable for the
// provider-specific call. Providers fill in callFunc; everything else is
// shared plumbing.
type Model struct {
	ModelName string
	APIKey    string
	BaseURL   string

	// callFunc is the implementation for each provider
	callFunc func(ctx context.Context, model *Model, messages []Message, tools []Tool) (AIMessage, error)

	// Option pointers, nil means not set
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

// Call makes a single call to the model. It does not execute tool calls, it
// returns the requested ToolCalls for the caller's own execution loop.
func (m *Model) Call(ctx context.Context, messages []Message, tools []Tool) (AIMessage, error) {
	if m.callFunc == nil {
		return AIMessage{}, errors.New("model has no call function")
	}
	return m.callFunc(ctx, m, messages, tools)
}

// Complete is a convenience wrapper for one-shot prompts with no tools.
// Tool resolvers use it to fill in argument values the user left implicit.
func (m *Model) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := []Message{
		SystemMessage{Role: SystemRole, Content: system},
		UserMessage{Role: UserRole, Content: prompt},
	}
	resp, err := m.Call(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (m *Model) WithTemperature(t float64) *Model {
	m.Temperature = &t
	return m
}

func (m *Model) WithMaxTokens(n int) *Model {
	m.MaxTokens = &n
	return m
}
