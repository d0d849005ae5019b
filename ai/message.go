package ai

type MessageRole string

const (
	UserRole      MessageRole = "user"
	AssistantRole MessageRole = "assistant"
	ToolRole      MessageRole = "tool"
	SystemRole    MessageRole = "system"
)

type Message interface {
	Value() (role MessageRole, content string)
}

var (
	_ Message = UserMessage{}
	_ Message = AIMessage{}
	_ Message = ToolMessage{}
	_ Message = SystemMessage{}
)

// ToolCall is a tool invocation requested by the model. Args is the raw
// JSON argument object exactly as the provider returned it.
type ToolCall struct {
	ID   string
	Type string
	Name string
	Args string
}

type AIMessage struct {
	Role      MessageRole
	Content   string
	ToolCalls []ToolCall
	Response  Response
}

func (m AIMessage) Value() (MessageRole, string) {
	return m.Role, m.Content
}

type UserMessage struct {
	Role    MessageRole
	Content string
}

func (m UserMessage) Value() (MessageRole, string) {
	return m.Role, m.Content
}

type ToolMessage struct {
	Role       MessageRole
	Content    string
	ToolCallID string
}

func (m ToolMessage) Value() (MessageRole, string) {
	return m.Role, m.Content
}

type SystemMessage struct {
	Role    MessageRole
	Content string
}

func (m SystemMessage) Value() (MessageRole, string) {
	return m.Role, m.Content
}

// Response carries provider metadata for the last completion.
type Response struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
