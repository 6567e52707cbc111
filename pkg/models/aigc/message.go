package aigc

import "strings"

// transcript roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// model-native history roles
const (
	ContentRoleUser  = "user"
	ContentRoleModel = "model"
)

// Message is one turn of the displayed transcript.
type Message struct {
	Role    string `json:"role,omitempty" yaml:"role,omitempty"`
	Content string `json:"content" yaml:"content"`
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
}

// Messages is the transcript, insertion order is display order.
type Messages []Message

// Recently returns the last n turns, or all of them when n <= 0.
func (z Messages) Recently(n int) Messages {
	if n <= 0 || n >= len(z) {
		return z
	}
	return z[len(z)-n:]
}

// Content is one entry of the history in the shape the model API expects.
type Content struct {
	Role  string   `json:"role"`
	Parts []string `json:"parts"`
}

// Contents is the model-native history.
type Contents []Content

// NewContent wraps text into a single-part content.
func NewContent(role, text string) Content {
	return Content{Role: role, Parts: []string{text}}
}

// Text joins all parts.
func (c Content) Text() string {
	return strings.Join(c.Parts, "")
}
