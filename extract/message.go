package extract

import (
	"bytes"
	"fmt"

	j "github.com/goccy/go-json"
)

// Role names the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Known reports whether r is one of the three roles a conversation may use.
func (r Role) Known() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is one conversation turn. Content is either plain text or a list of
// structured content blocks (for example text and image_url parts); Blocks
// wins when it is non-nil.
type Message struct {
	Role    Role
	Content string
	Blocks  []map[string]any
}

// Text returns a plain text message.
func Text(role Role, content string) Message { return Message{Role: role, Content: content} }

// MarshalJSON writes {"role":..., "content": <string|blocks>}.
func (m Message) MarshalJSON() ([]byte, error) {
	var content any = m.Content
	if m.Blocks != nil {
		content = m.Blocks
	}
	return j.Marshal(struct {
		Role    Role `json:"role"`
		Content any  `json:"content"`
	}{m.Role, content})
}

// UnmarshalJSON accepts content given as a string or as a list of objects.
func (m *Message) UnmarshalJSON(b []byte) error {
	var raw struct {
		Role    Role         `json:"role"`
		Content j.RawMessage `json:"content"`
	}
	if err := j.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := Message{Role: raw.Role}
	c := bytes.TrimSpace(raw.Content)
	switch {
	case len(c) == 0 || bytes.Equal(c, []byte("null")):
		return fmt.Errorf("message content is required")
	case c[0] == '"':
		if err := j.Unmarshal(c, &out.Content); err != nil {
			return err
		}
	case c[0] == '[':
		out.Blocks = []map[string]any{}
		if err := j.Unmarshal(c, &out.Blocks); err != nil {
			return fmt.Errorf("message content blocks: %w", err)
		}
	default:
		return fmt.Errorf("message content must be a string or a list of blocks")
	}
	*m = out
	return nil
}

func cloneMessages(ms []Message) []Message {
	return append([]Message(nil), ms...)
}
