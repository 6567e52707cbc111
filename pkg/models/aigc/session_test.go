package aigc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionWelcome(t *testing.T) {
	sess := NewSession(WelcomeText)
	assert.NotEmpty(t, sess.ID)
	require.Len(t, sess.Transcript, 1)
	assert.Equal(t, RoleAssistant, sess.Transcript[0].Role)
	assert.Equal(t, WelcomeText, sess.Transcript[0].Content)
	assert.Empty(t, sess.History)

	assert.NotEqual(t, sess.ID, NewSession("").ID)
}

func TestSessionTranscriptOrder(t *testing.T) {
	sess := NewSessionWithID("s1", "")
	var want Messages
	for i := 0; i < 6; i++ {
		user := fmt.Sprintf("question %d", i)
		reply := fmt.Sprintf("answer %d", i)
		sess.AppendUser(user)
		sess.AppendAssistant(reply)
		sess.Commit(user, reply)
		want = append(want, Message{Role: RoleUser, Content: user}, Message{Role: RoleAssistant, Content: reply})
	}

	assert.Equal(t, want, sess.Messages())
	require.Len(t, sess.History, 12)
	for i, c := range sess.History {
		if i%2 == 0 {
			assert.Equal(t, ContentRoleUser, c.Role)
		} else {
			assert.Equal(t, ContentRoleModel, c.Role)
		}
		assert.Len(t, c.Parts, 1)
		assert.Equal(t, want[i].Content, c.Text())
	}
	assert.Equal(t, want[10:], sess.Messages().Recently(2))
}

func TestSessionResetAndClone(t *testing.T) {
	sess := NewSessionWithID("s2", WelcomeText)
	sess.APIKey = "k"
	sess.AppendUser("hi")
	sess.AppendAssistant("hello")
	sess.Commit("hi", "hello")

	c := sess.Clone()
	c.AppendUser("more")
	c.History[0].Parts[0] = "changed"
	assert.Len(t, sess.Transcript, 3)
	assert.Equal(t, "hi", sess.History[0].Text())

	sess.Reset(WelcomeText)
	assert.Equal(t, "s2", sess.ID)
	assert.Equal(t, "k", sess.APIKey)
	assert.Len(t, sess.Transcript, 1)
	assert.Empty(t, sess.History)
}

func TestSessionBinary(t *testing.T) {
	sess := NewSessionWithID("s3", WelcomeText)
	sess.AppendUser("123 Main Street")
	sess.Commit("123 Main Street", "ok")

	b, err := sess.MarshalBinary()
	require.NoError(t, err)

	var got Session
	require.NoError(t, got.UnmarshalBinary(b))
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, sess.Transcript, got.Transcript)
	assert.Equal(t, sess.History, got.History)
}

func TestPresetFallbacks(t *testing.T) {
	var p *Preset
	assert.Equal(t, SystemRole, p.GetSystemPrompt())
	assert.Equal(t, WelcomeText, p.GetWelcome())

	p = &Preset{SystemPrompt: "be brief", Welcome: &Message{Content: "Hola"}}
	assert.Equal(t, "be brief", p.GetSystemPrompt())
	assert.Equal(t, "Hola", p.GetWelcome())
}
