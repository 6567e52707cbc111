package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/liut/showsmart/pkg/models/aigc"
	"github.com/liut/showsmart/pkg/services/llm"
	"github.com/liut/showsmart/pkg/services/search"
)

var (
	ErrMissingAPIKey = errors.New("please enter your Google Gemini API key to start")
	ErrEmptyPrompt   = errors.New("empty prompt")
)

// user facing text of a failed model call
const (
	failureText = "Sorry, an error occurred while generating the answer."
	hintFormat  = "Note: check that the model '%s' is available for your API key."
)

// Provider hands out a model client configured for an api key.
type Provider interface {
	ForKey(apiKey string) llm.Generator
}

// Config ...
type Config struct {
	// process wide key, takes precedence over keys entered per session
	APIKey string
	Model  string
	Preset aigc.Preset
}

// Agent runs one conversation turn at a time: the message is optionally
// augmented with search results, then sent with the session history.
type Agent struct {
	cfg       Config
	models    Provider
	augmenter *search.Augmenter
}

// New returns an Agent, augmenter may be nil to disable search.
func New(cfg Config, models Provider, augmenter *search.Augmenter) *Agent {
	return &Agent{cfg: cfg, models: models, augmenter: augmenter}
}

// Reply is the outcome of a turn.
type Reply struct {
	Text      string `json:"text"`
	Augmented bool   `json:"augmented,omitempty"`
	Failed    bool   `json:"failed,omitempty"`
}

// Welcome is the first assistant turn of new sessions.
func (a *Agent) Welcome() string {
	return a.cfg.Preset.GetWelcome()
}

// SearchEnabled ...
func (a *Agent) SearchEnabled() bool {
	return a.augmenter != nil
}

// Model returns the name of the remote model.
func (a *Agent) Model() string {
	return a.cfg.Model
}

// APIKey returns the key used for sess, the process key wins.
func (a *Agent) APIKey(sess *aigc.Session) string {
	if len(a.cfg.APIKey) > 0 {
		return a.cfg.APIKey
	}
	if sess != nil {
		return sess.APIKey
	}
	return ""
}

// HasKey reports whether sess can talk to the model.
func (a *Agent) HasKey(sess *aigc.Session) bool {
	return len(a.APIKey(sess)) > 0
}

// Turn runs one exchange. ErrEmptyPrompt and ErrMissingAPIKey leave the
// session untouched. Otherwise one user and one assistant turn are appended,
// a failed model call is reported as the assistant turn.
func (a *Agent) Turn(ctx context.Context, sess *aigc.Session, text string) (Reply, error) {
	return a.turn(ctx, sess, text, nil)
}

// TurnStream is Turn reporting the reply incrementally through onDelta.
func (a *Agent) TurnStream(ctx context.Context, sess *aigc.Session, text string, onDelta func(string)) (Reply, error) {
	if onDelta == nil {
		onDelta = func(string) {}
	}
	return a.turn(ctx, sess, text, onDelta)
}

func (a *Agent) turn(ctx context.Context, sess *aigc.Session, text string, onDelta func(string)) (rep Reply, err error) {
	if len(strings.TrimSpace(text)) == 0 {
		return rep, ErrEmptyPrompt
	}
	key := a.APIKey(sess)
	if len(key) == 0 {
		return rep, ErrMissingAPIKey
	}

	sess.AppendUser(text)

	outgoing, augmented := a.augmenter.Augment(ctx, text)
	rep.Augmented = augmented

	answer, err := a.generate(ctx, key, sess.History, outgoing, onDelta)
	if err != nil {
		logger().Infow("turn fail", "sess", sess.ID, "model", a.cfg.Model, "err", err)
		rep.Failed = true
		rep.Text = failureText + "\n\n" + fmt.Sprintf(hintFormat, a.cfg.Model)
		sess.AppendAssistant(rep.Text)
		return rep, nil
	}

	rep.Text = answer
	sess.AppendAssistant(answer)
	sess.Commit(outgoing, answer)
	logger().Infow("turn done", "sess", sess.ID, "augmented", augmented, "answer", len(answer))
	return rep, nil
}

func (a *Agent) generate(ctx context.Context, key string, history aigc.Contents, text string,
	onDelta func(string)) (string, error) {
	gen := a.models.ForKey(key)
	system := a.cfg.Preset.GetSystemPrompt()
	if onDelta != nil {
		if st, ok := gen.(llm.Streamer); ok {
			return st.GenerateStream(ctx, system, history, text, onDelta)
		}
	}
	answer, err := gen.Generate(ctx, system, history, text)
	if err == nil && onDelta != nil {
		onDelta(answer)
	}
	return answer, err
}
