package llm

import (
	"context"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a model-issued request to invoke a declared tool. The ID ties
// the eventual tool-result message back to this call.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON
}

// Tool declares an invocable capability. Parameters is a JSON-schema object.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // assistant messages only
	ToolCallID string     // tool messages only
	Name       string     // tool messages only
}

type Request struct {
	Messages    []Message
	Tools       []Tool
	Temperature float32
	JSONMode    bool
}

type Response struct {
	Content   string
	ToolCalls []ToolCall
}

type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolMessage carries a tool execution result tagged with the call it answers.
func ToolMessage(callID, name, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Name: name, Content: content}
}
