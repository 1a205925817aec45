package chat

import "strings"

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single transcript entry exchanged with the relay.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserMessage builds a user turn.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant turn.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// SystemMessage builds a system instruction.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// WithSystem returns the upstream message list: the system instruction followed
// by a copy of the transcript. The transcript itself is never modified.
func WithSystem(system string, transcript []Message) []Message {
	out := make([]Message, 0, len(transcript)+1)
	out = append(out, SystemMessage(system))
	return append(out, transcript...)
}

// IsBlank reports whether text has no visible content.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
