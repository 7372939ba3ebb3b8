package models

import "strings"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single entry of the conversation supplied with a turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Task selects which pipeline handles a turn.
type Task string

const (
	TaskResearch           Task = ""
	TaskTitleGeneration    Task = "title_generation"
	TaskFollowUpGeneration Task = "follow_up_generation"
)

// Valid reports whether t is one of the known task markers.
func (t Task) Valid() bool {
	switch t {
	case TaskResearch, TaskTitleGeneration, TaskFollowUpGeneration:
		return true
	}
	return false
}

// Turn is one user interaction: the message history plus a task marker.
// System messages are dropped when the turn is built, so indices into
// Messages always refer to user or assistant entries.
type Turn struct {
	ID       string    `json:"id,omitempty"`
	Messages []Message `json:"messages"`
	Task     Task      `json:"task,omitempty"`
}

// NewTurn builds a Turn from raw messages, filtering system messages.
func NewTurn(id string, messages []Message, task Task) Turn {
	kept := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			continue
		}
		kept = append(kept, m)
	}
	return Turn{ID: id, Messages: kept, Task: task}
}

// LastUserIndex returns the position of the last user message, or -1.
func (t Turn) LastUserIndex() int {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].Role == RoleUser {
			return i
		}
	}
	return -1
}

// Query returns the content of the last user message.
func (t Turn) Query() (string, bool) {
	idx := t.LastUserIndex()
	if idx < 0 {
		return "", false
	}
	return t.Messages[idx].Content, true
}

// History returns the messages preceding the last user message. The result
// aliases t.Messages.
func (t Turn) History() []Message {
	idx := t.LastUserIndex()
	if idx < 0 {
		return t.Messages
	}
	return t.Messages[:idx]
}

// FormatHistory renders messages as labelled turns separated by blank lines.
func FormatHistory(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		switch m.Role {
		case RoleUser:
			b.WriteString("\n\n**User**: ")
		case RoleAssistant:
			b.WriteString("\n\n**Assistant**: ")
		default:
			continue
		}
		b.WriteString(m.Content)
	}
	return b.String()
}
