package ai

import (
	"context"
)

// NewDummyModel is useful for testing purposes. It allows you to mock the model's response.
func NewDummyModel(responseFunc func(messages []Message, tools []Tool) AIMessage) *Model {
	return &Model{
		ModelName: "dummy",
		callFunc: func(ctx context.Context, model *Model, messages []Message, tools []Tool) (AIMessage, error) {
			return responseFunc(messages, tools), nil
		},
	}
}

// NewScriptedModel returns the given messages in order, repeating the last
// one once the script runs out. Handy for multi-turn tests.
func NewScriptedModel(script ...AIMessage) *Model {
	i := 0
	return NewDummyModel(func(messages []Message, tools []Tool) AIMessage {
		if i >= len(script) {
			return script[len(script)-1]
		}
		msg := script[i]
		i++
		return msg
	})
}
