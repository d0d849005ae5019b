package ai

import (
	"fmt"
)

// Tool mimics a "standard" mcp tool definition so the same shape works for
// local tools and tools fetched from an mcp server.
type Tool struct {
	Name        string                                                 `json:"name"`
	Description string                                                 `json:"description"`
	InputSchema map[string]interface{}                                 `json:"inputSchema,omitempty"`
	Execute     func(args map[string]interface{}) (*ToolResult, error) `json:"-"`
}

// Call executes the tool with the given arguments
func (t *Tool) Call(args map[string]interface{}) (*ToolResult, error) {
	if t.Execute == nil {
		return nil, fmt.Errorf("tool %s has no execute function", t.Name)
	}
	return t.Execute(args)
}

// ToolResult is the provider-neutral result payload of a tool execution.
type ToolResult struct {
	Content []ToolContent `json:"content"`
	Error   bool          `json:"isError,omitempty"`
}

type ToolContent struct {
	Type    string `json:"type"`
	Content any    `json:"content"`
}

// NewTextResult wraps plain text in a ToolResult.
func NewTextResult(text string) *ToolResult {
	return &ToolResult{Content: []ToolContent{{Type: "text", Content: text}}}
}

// Text concatenates the text parts of the result.
func (r *ToolResult) Text() string {
	var out string
	for _, c := range r.Content {
		if c.Type != "text" {
			continue
		}
		if s, ok := c.Content.(string); ok {
			out += s
		}
	}
	return out
}
