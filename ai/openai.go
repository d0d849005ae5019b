package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// NewOpenAIModel creates a model backed by any OpenAI-compatible chat
// completions endpoint. baseURL defaults to api.openai.com or the
// OPENAI_BASE_URL environment variable.
func NewOpenAIModel(modelName, apiKey, baseURL string) *Model {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
		if envURL := os.Getenv("OPENAI_BASE_URL"); envURL != "" {
			baseURL = envURL
		}
	}

	client := resty.New()
	client.SetTimeout(60 * time.Second)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(1 * time.Second)
	client.SetRetryMaxWaitTime(5 * time.Second)

	return &Model{
		ModelName: modelName,
		APIKey:    apiKey,
		BaseURL:   baseURL,
		callFunc: func(ctx context.Context, m *Model, messages []Message, tools []Tool) (AIMessage, error) {
			return openAICall(ctx, client, m, messages, tools)
		},
	}
}

type oaMessage struct {
	Role       string       `json:"role"`
	Content    string       `json:"content"`
	ToolCalls  []oaToolCall `json:"tool_calls,omitempty"`
	ToolCallID string       `json:"tool_call_id,omitempty"`
}

type oaToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type oaTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string                 `json:"name"`
		Description string                 `json:"description"`
		Parameters  map[string]interface{} `json:"parameters"`
	} `json:"function"`
}

type oaRequest struct {
	Model       string      `json:"model"`
	Messages    []oaMessage `json:"messages"`
	Tools       []oaTool    `json:"tools,omitempty"`
	Temperature *float64    `json:"temperature,omitempty"`
	MaxTokens   *int        `json:"max_tokens,omitempty"`
	TopP        *float64    `json:"top_p,omitempty"`
}

type oaResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Message      oaMessage `json:"message"`
		FinishReason string    `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func openAICall(ctx context.Context, client *resty.Client, m *Model, messages []Message, tools []Tool) (AIMessage, error) {
	req := oaRequest{
		Model:       m.ModelName,
		Messages:    toOpenAIMessages(messages),
		Temperature: m.Temperature,
		MaxTokens:   m.MaxTokens,
		TopP:        m.TopP,
	}
	for _, t := range tools {
		var ot oaTool
		ot.Type = "function"
		ot.Function.Name = t.Name
		ot.Function.Description = t.Description
		ot.Function.Parameters = t.InputSchema
		req.Tools = append(req.Tools, ot)
	}

	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+m.APIKey).
		SetBody(req).
		Post(m.BaseURL + "/chat/completions")
	if err != nil {
		return AIMessage{}, fmt.Errorf("chat completion: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return AIMessage{}, StatusError{
			StatusCode:   resp.StatusCode(),
			Status:       resp.Status(),
			ErrorMessage: resp.String(),
		}
	}

	var out oaResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return AIMessage{}, fmt.Errorf("decode chat completion: %w", err)
	}
	if out.Error != nil {
		return AIMessage{}, fmt.Errorf("chat completion: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return AIMessage{}, ErrNoChoices
	}

	choice := out.Choices[0].Message
	aiMsg := AIMessage{
		Role:    AssistantRole,
		Content: choice.Content,
		Response: Response{
			ID:      out.ID,
			Object:  out.Object,
			Created: out.Created,
			Model:   out.Model,
			Usage:   out.Usage,
		},
	}
	for _, tc := range choice.ToolCalls {
		aiMsg.ToolCalls = append(aiMsg.ToolCalls, ToolCall{
			ID:   tc.ID,
			Type: tc.Type,
			Name: tc.Function.Name,
			Args: tc.Function.Arguments,
		})
	}
	return aiMsg, nil
}

func toOpenAIMessages(messages []Message) []oaMessage {
	out := make([]oaMessage, 0, len(messages))
	for _, msg := range messages {
		switch m := msg.(type) {
		case AIMessage:
			om := oaMessage{Role: string(AssistantRole), Content: m.Content}
			for _, tc := range m.ToolCalls {
				var otc oaToolCall
				otc.ID = tc.ID
				otc.Type = "function"
				otc.Function.Name = tc.Name
				otc.Function.Arguments = tc.Args
				om.ToolCalls = append(om.ToolCalls, otc)
			}
			out = append(out, om)
		case ToolMessage:
			out = append(out, oaMessage{Role: string(ToolRole), Content: m.Content, ToolCallID: m.ToolCallID})
		default:
			role, content := msg.Value()
			out = append(out, oaMessage{Role: string(role), Content: content})
		}
	}
	return out
}
