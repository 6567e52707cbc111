package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/jpillora/eventsource"
	"github.com/marcsv/go-binder/binder"
	"github.com/spf13/cast"

	"github.com/liut/showsmart/pkg/models/aigc"
	"github.com/liut/showsmart/pkg/services/agent"
	"github.com/liut/showsmart/pkg/services/stores"
	"github.com/liut/showsmart/pkg/settings"
)

// session loads the session named by the cookie, a new one is saved and
// its cookie set.
func (s *server) session(w http.ResponseWriter, r *http.Request) (*aigc.Session, error) {
	var id string
	if c, err := r.Cookie(settings.Current.CookieName); err == nil {
		id = c.Value
	}
	sess, created, err := stores.LoadSession(r.Context(), s.sto, id, s.agent.Welcome())
	if err != nil {
		return nil, err
	}
	if created {
		if err = s.sto.Save(r.Context(), sess); err != nil {
			return nil, err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     settings.Current.CookieName,
			Value:    sess.ID,
			Path:     settings.Current.CookiePath,
			Domain:   settings.Current.CookieDomain,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		logger().Infow("new session", "id", sess.ID, "ip", r.RemoteAddr)
	}
	return sess, nil
}

// lockedSession is session held exclusively until unlock is called, it is
// read again after the lock since another turn may have finished meanwhile.
func (s *server) lockedSession(w http.ResponseWriter, r *http.Request) (sess *aigc.Session, unlock func(), err error) {
	sess, err = s.session(w, r)
	if err != nil {
		return
	}
	unlock = s.locks.Lock(sess.ID)
	fresh, err := s.sto.Get(r.Context(), sess.ID)
	if err == nil {
		return fresh, unlock, nil
	}
	if errors.Is(err, stores.ErrNotFound) {
		return sess, unlock, nil
	}
	unlock()
	return nil, nil, err
}

func (s *server) getConfig(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		apiFail(w, r, 503, err)
		return
	}
	apiOk(w, r, &ConfigStatus{
		KeyConfigured: s.agent.HasKey(sess),
		KeyFromEnv:    s.agent.HasKey(nil),
		Model:         s.agent.Model(),
		Search:        s.agent.SearchEnabled(),
		Version:       settings.Current.Version,
	})
}

func (s *server) postKey(w http.ResponseWriter, r *http.Request) {
	var param KeyRequest
	if err := binder.BindBody(r, &param); err != nil {
		apiFail(w, r, 400, err)
		return
	}
	param.APIKey = strings.TrimSpace(param.APIKey)
	if len(param.APIKey) == 0 {
		apiFail(w, r, 400, "empty api key")
		return
	}
	sess, unlock, err := s.lockedSession(w, r)
	if err != nil {
		apiFail(w, r, 503, err)
		return
	}
	defer unlock()

	sess.APIKey = param.APIKey
	if err = s.sto.Save(r.Context(), sess); err != nil {
		apiFail(w, r, 503, err)
		return
	}
	apiOk(w, r, M{"keyConfigured": true})
}

func (s *server) getWelcome(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		apiFail(w, r, 503, err)
		return
	}
	apiOk(w, r, &aigc.Message{Role: aigc.RoleAssistant, Content: s.agent.Welcome(), ID: sess.ID})
}

func (s *server) getHistory(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		apiFail(w, r, 503, err)
		return
	}
	data := sess.Messages()
	apiOk(w, r, data.Recently(cast.ToInt(r.URL.Query().Get("limit"))), len(data))
}

func (s *server) deleteHistory(w http.ResponseWriter, r *http.Request) {
	sess, unlock, err := s.lockedSession(w, r)
	if err != nil {
		apiFail(w, r, 503, err)
		return
	}
	defer unlock()

	sess.Reset(s.agent.Welcome())
	if err = s.sto.Save(r.Context(), sess); err != nil {
		apiFail(w, r, 503, err)
		return
	}
	apiOk(w, r, sess.Messages())
}

func turnFail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, agent.ErrMissingAPIKey):
		apiFail(w, r, 401, err)
	case errors.Is(err, agent.ErrEmptyPrompt):
		apiFail(w, r, 400, err)
	default:
		apiFail(w, r, 500, err)
	}
}

func (s *server) postChat(w http.ResponseWriter, r *http.Request) {
	var param ChatRequest
	if err := binder.BindBody(r, &param); err != nil {
		apiFail(w, r, 400, err)
		return
	}
	sess, unlock, err := s.lockedSession(w, r)
	if err != nil {
		apiFail(w, r, 503, err)
		return
	}
	defer unlock()

	logger().Infow("chat", "csid", sess.ID, "prompt", param.Prompt, "ip", r.RemoteAddr)
	rep, err := s.agent.Turn(r.Context(), sess, param.Prompt)
	if err != nil {
		turnFail(w, r, err)
		return
	}
	if err = s.sto.Save(r.Context(), sess); err != nil {
		logger().Infow("save session fail", "csid", sess.ID, "err", err)
	}

	apiOk(w, r, &ChatMessage{
		ID:        sess.ID,
		Role:      aigc.RoleAssistant,
		Text:      rep.Text,
		Augmented: rep.Augmented,
		Failed:    rep.Failed,
	})
}

func (s *server) postChatSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}
	var param ChatRequest
	if err := binder.BindBody(r, &param); err != nil {
		apiFail(w, r, 400, err)
		return
	}
	sess, unlock, err := s.lockedSession(w, r)
	if err != nil {
		apiFail(w, r, 503, err)
		return
	}
	defer unlock()
	if !s.agent.HasKey(sess) {
		turnFail(w, r, agent.ErrMissingAPIKey)
		return
	}
	if len(strings.TrimSpace(param.Prompt)) == 0 {
		turnFail(w, r, agent.ErrEmptyPrompt)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Add("Conversation-ID", sess.ID)

	var idx int
	next := func() string {
		idx++
		return strconv.Itoa(idx)
	}
	rep, err := s.agent.TurnStream(r.Context(), sess, param.Prompt, func(delta string) {
		if writeEvent(w, next(), &ChatDelta{Delta: delta}) {
			flusher.Flush()
		}
	})
	if err != nil {
		logger().Infow("chat stream fail", "csid", sess.ID, "err", err)
		return
	}
	if err = s.sto.Save(r.Context(), sess); err != nil {
		logger().Infow("save session fail", "csid", sess.ID, "err", err)
	}

	_ = writeEvent(w, next(), &ChatMessage{
		ID:        sess.ID,
		Role:      aigc.RoleAssistant,
		Text:      rep.Text,
		Augmented: rep.Augmented,
		Failed:    rep.Failed,
	})
	_ = writeEvent(w, next(), esDone)
	flusher.Flush()
}

// writeEvent write one server-sent event
func writeEvent(w io.Writer, id string, m any) bool {
	var b []byte
	var err error
	if s, ok := m.(string); ok {
		b = []byte(s)
	} else {
		b, err = json.Marshal(m)
		if err != nil {
			logger().Infow("json marshal fail", "m", m, "err", err)
			return false
		}
	}

	if err = eventsource.WriteEvent(w, eventsource.Event{
		ID:   id,
		Data: b,
	}); err != nil {
		logger().Infow("eventsource write fail", "err", err)
		return false
	}

	return true
}
