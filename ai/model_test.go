package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDummyModelCall(t *testing.T) {
	model := NewDummyModel(func(messages []Message, tools []Tool) AIMessage {
		assert.Len(t, messages, 2)
		return AIMessage{Role: AssistantRole, Content: "hello"}
	})

	resp, err := model.Call(context.Background(), []Message{
		SystemMessage{Role: SystemRole, Content: "sys"},
		UserMessage{Role: UserRole, Content: "hi"},
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
}

func TestScriptedModelRepeatsLast(t *testing.T) {
	model := NewScriptedModel(
		AIMessage{Role: AssistantRole, Content: "one"},
		AIMessage{Role: AssistantRole, Content: "two"},
	)

	for _, want := range []string{"one", "two", "two"} {
		resp, err := model.Call(context.Background(), nil, nil)
		assert.NoError(t, err)
		assert.Equal(t, want, resp.Content)
	}
}

func TestComplete(t *testing.T) {
	model := NewDummyModel(func(messages []Message, tools []Tool) AIMessage {
		role, content := messages[0].Value()
		assert.Equal(t, SystemRole, role)
		assert.Equal(t, "you resolve bounding boxes", content)
		return AIMessage{Role: AssistantRole, Content: "[6.7, 36.0, 18.5, 47.1]"}
	})

	out, err := model.Complete(context.Background(), "you resolve bounding boxes", "Italy")
	assert.NoError(t, err)
	assert.Equal(t, "[6.7, 36.0, 18.5, 47.1]", out)
}

func TestToOpenAIMessages(t *testing.T) {
	msgs := toOpenAIMessages([]Message{
		UserMessage{Role: UserRole, Content: "download forecast"},
		AIMessage{Role: AssistantRole, ToolCalls: []ToolCall{{ID: "call_1", Name: "cds_forecast", Args: `{"area":"Italy"}`}}},
		ToolMessage{Role: ToolRole, Content: "done", ToolCallID: "call_1"},
	})

	assert.Len(t, msgs, 3)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Len(t, msgs[1].ToolCalls, 1)
	assert.Equal(t, "cds_forecast", msgs[1].ToolCalls[0].Function.Name)
	assert.Equal(t, "call_1", msgs[2].ToolCallID)
}

func TestToolCallWithoutExecute(t *testing.T) {
	tool := Tool{Name: "broken"}
	_, err := tool.Call(nil)
	assert.Error(t, err)
}
