package ai

import "strings"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a chat message in a transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// Name is the tool name on tool messages.
	Name string `json:"name,omitempty"`
	// ToolCalls are the tool invocations requested by an assistant message.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID links a tool message to the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolCall is a named tool invocation request.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON object
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolMessage creates a tool result message.
func ToolMessage(callID, name, content string) Message {
	return Message{Role: RoleTool, Content: content, Name: name, ToolCallID: callID}
}

// Tail returns the last n messages of a transcript.
func Tail(transcript []Message, n int) []Message {
	if n <= 0 || n >= len(transcript) {
		return transcript
	}
	return transcript[len(transcript)-n:]
}

// Conversational keeps the user and assistant text of a transcript. Tool
// calls and tool results are dropped.
func Conversational(transcript []Message) []Message {
	out := make([]Message, 0, len(transcript))
	for _, m := range transcript {
		if m.Content == "" || len(m.ToolCalls) > 0 {
			continue
		}
		switch m.Role {
		case RoleUser:
			out = append(out, UserMessage(m.Content))
		case RoleAssistant:
			out = append(out, AssistantMessage(m.Content))
		}
	}
	return out
}

// LastUserMessage returns the content of the most recent user message.
func LastUserMessage(transcript []Message) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == RoleUser {
			return transcript[i].Content
		}
	}
	return ""
}

// CloneTranscript returns a deep copy of a transcript.
func CloneTranscript(transcript []Message) []Message {
	if transcript == nil {
		return nil
	}
	out := make([]Message, len(transcript))
	for i, m := range transcript {
		out[i] = m
		if m.ToolCalls != nil {
			out[i].ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
		}
	}
	return out
}

// FormatTranscript renders messages as "role: content" lines for prompts.
func FormatTranscript(transcript []Message) string {
	var sb strings.Builder
	for _, m := range transcript {
		if m.Content == "" {
			continue
		}
		sb.WriteString(m.Role)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
