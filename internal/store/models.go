package store

import "strings"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// systemPreamble is the instructional first turn of every new conversation.
const systemPreamble = "You are an AI assistant that helps people find information."

// Segment is one typed block inside a turn's content. Currently always a
// single text segment, but the wire format allows more.
type Segment struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Turn is one role-tagged message unit within a conversation.
type Turn struct {
	Role    string    `json:"role"`
	Content []Segment `json:"content"`
}

// Text flattens the turn's text segments into a single string.
func (t Turn) Text() string {
	if len(t.Content) == 1 {
		return t.Content[0].Text
	}
	var out strings.Builder
	for _, seg := range t.Content {
		out.WriteString(seg.Text)
	}
	return out.String()
}

// Conversation is an ordered, append-only sequence of turns. The first turn
// is always the system preamble.
type Conversation []Turn

// NewConversation returns a conversation holding only the system preamble.
func NewConversation() Conversation {
	return Conversation{NewTurn(RoleSystem, systemPreamble)}
}

func NewTurn(role, text string) Turn {
	return Turn{
		Role:    role,
		Content: []Segment{{Type: "text", Text: text}},
	}
}

// Append returns the conversation with a new turn added. Turns are never
// reordered or rewritten.
func (c Conversation) Append(role, text string) Conversation {
	return append(c, NewTurn(role, text))
}

// clone copies the turn slice. Turns themselves are immutable once appended,
// so a shallow copy is enough to break backing-array aliasing.
func (c Conversation) clone() Conversation {
	out := make(Conversation, len(c))
	copy(out, c)
	return out
}
