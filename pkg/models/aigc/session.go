package aigc

import (
	"encoding/json"
	"time"

	"github.com/cupogo/andvari/models/oid"
)

// Session is the state of one interactive conversation.
//
// Transcript is what the user sees, History is what the model gets. Both
// are append-only; a successful turn adds one user and one assistant/model
// entry to each.
type Session struct {
	ID      string `json:"id"`
	Created int64  `json:"created"`
	Updated int64  `json:"updated"`

	// entered by the user, used when no key is configured for the process
	APIKey string `json:"apiKey,omitempty"`

	Transcript Messages `json:"transcript"`
	History    Contents `json:"history"`
}

// NewSession starts a conversation greeted by welcome.
func NewSession(welcome string) *Session {
	return NewSessionWithID(oid.NewID(oid.OtEvent).String(), welcome)
}

// NewSessionWithID starts a conversation with a caller chosen id.
func NewSessionWithID(id, welcome string) *Session {
	now := time.Now().Unix()
	sess := &Session{ID: id, Created: now, Updated: now}
	if len(welcome) > 0 {
		sess.AppendAssistant(welcome)
	}
	return sess
}

// AppendUser adds a user turn to the transcript.
func (z *Session) AppendUser(text string) {
	z.append(RoleUser, text)
}

// AppendAssistant adds an assistant turn to the transcript.
func (z *Session) AppendAssistant(text string) {
	z.append(RoleAssistant, text)
}

func (z *Session) append(role, text string) {
	z.Transcript = append(z.Transcript, Message{Role: role, Content: text})
	z.Updated = time.Now().Unix()
}

// Commit records a completed exchange in the model-native history.
func (z *Session) Commit(userText, modelText string) {
	z.History = append(z.History,
		NewContent(ContentRoleUser, userText),
		NewContent(ContentRoleModel, modelText),
	)
}

// Messages returns a copy of the transcript in insertion order.
func (z *Session) Messages() Messages {
	out := make(Messages, len(z.Transcript))
	copy(out, z.Transcript)
	return out
}

// Reset drops every turn and greets again, the id and key survive.
func (z *Session) Reset(welcome string) {
	z.Transcript = nil
	z.History = nil
	if len(welcome) > 0 {
		z.AppendAssistant(welcome)
	}
}

// Clone returns a deep copy.
func (z *Session) Clone() *Session {
	c := *z
	c.Transcript = z.Messages()
	c.History = make(Contents, len(z.History))
	for i, hc := range z.History {
		c.History[i] = Content{Role: hc.Role, Parts: append([]string(nil), hc.Parts...)}
	}
	return &c
}

// MarshalBinary implements the encoding.BinaryMarshaler interface.
func (z *Session) MarshalBinary() (data []byte, err error) {
	data, err = json.Marshal(z)
	return
}

// UnmarshalBinary unmarshal a binary representation of itself. for redis result.Scan
func (z *Session) UnmarshalBinary(data []byte) error {
	var t Session
	err := json.Unmarshal(data, &t)
	if err == nil {
		*z = t
	}
	return err
}
