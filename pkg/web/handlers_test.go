package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liut/showsmart/pkg/models/aigc"
	"github.com/liut/showsmart/pkg/services/agent"
	"github.com/liut/showsmart/pkg/services/llm"
	"github.com/liut/showsmart/pkg/services/search"
	"github.com/liut/showsmart/pkg/services/stores"
)

type fakeModel struct {
	calls int
	texts []string
	fail  bool
}

func (m *fakeModel) Generate(_ context.Context, _ string, _ aigc.Contents, text string) (string, error) {
	m.calls++
	m.texts = append(m.texts, text)
	if m.fail {
		return "", errors.New("unavailable")
	}
	return "echo: " + text, nil
}

type fakeProvider struct{ m *fakeModel }

func (p fakeProvider) ForKey(string) llm.Generator { return p.m }

type stubSearcher struct{}

func (stubSearcher) Search(context.Context, string, int) (search.Results, error) {
	return search.Results{{Title: "123 Main Street", Body: "3 bed"}}, nil
}

type testClient struct {
	t   *testing.T
	srv *httptest.Server
	hc  *http.Client
}

func newTestClient(t *testing.T, key, rate string) (*testClient, *fakeModel) {
	t.Helper()
	m := &fakeModel{}
	ag := agent.New(agent.Config{APIKey: key, Model: "gemini-2.5-flash"}, fakeProvider{m: m},
		search.NewAugmenter(stubSearcher{}, 4))
	s := newServer(Config{Agent: ag, ChatRateLimit: rate})
	srv := httptest.NewServer(s.ar)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{t: t, srv: srv, hc: &http.Client{Jar: jar}}, m
}

func (c *testClient) do(method, path string, body any) (int, []byte) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, rd)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, data
}

func decodeData[T any](t *testing.T, b []byte) T {
	t.Helper()
	var res struct {
		Status int `json:"status"`
		Data   T   `json:"data"`
	}
	require.NoError(t, json.Unmarshal(b, &res), string(b))
	return res.Data
}

func TestPing(t *testing.T) {
	c, _ := newTestClient(t, "k", "")
	code, body := c.do(http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Pong\n", string(body))
}

func TestChatFlow(t *testing.T) {
	c, m := newTestClient(t, "k", "")

	code, body := c.do(http.MethodGet, "/api/welcome", nil)
	require.Equal(t, http.StatusOK, code)
	welcome := decodeData[aigc.Message](t, body)
	assert.Equal(t, aigc.WelcomeText, welcome.Content)
	assert.NotEmpty(t, welcome.ID)

	code, body = c.do(http.MethodPost, "/api/chat", ChatRequest{Prompt: "Fernando"})
	require.Equal(t, http.StatusOK, code)
	cm := decodeData[ChatMessage](t, body)
	assert.Equal(t, welcome.ID, cm.ID)
	assert.Equal(t, "echo: Fernando", cm.Text)
	assert.False(t, cm.Augmented)

	text := "123 Main Street and 456 Oak Ave, starting from 10 Elm St"
	code, body = c.do(http.MethodPost, "/api/chat", ChatRequest{Prompt: text})
	require.Equal(t, http.StatusOK, code)
	cm = decodeData[ChatMessage](t, body)
	assert.True(t, cm.Augmented)
	assert.True(t, strings.HasPrefix(m.texts[1], text))
	assert.True(t, strings.HasSuffix(m.texts[1], "- 123 Main Street: 3 bed"))

	code, body = c.do(http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, code)
	msgs := decodeData[aigc.Messages](t, body)
	require.Len(t, msgs, 5)
	assert.Equal(t, aigc.Message{Role: aigc.RoleUser, Content: "Fernando"}, msgs[1])
	assert.Equal(t, aigc.Message{Role: aigc.RoleUser, Content: text}, msgs[3])

	_, body = c.do(http.MethodGet, "/api/history?limit=2", nil)
	assert.Len(t, decodeData[aigc.Messages](t, body), 2)

	code, body = c.do(http.MethodDelete, "/api/history", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeData[aigc.Messages](t, body), 1)
}

func TestChatModelFailure(t *testing.T) {
	c, m := newTestClient(t, "k", "")
	m.fail = true

	code, body := c.do(http.MethodPost, "/api/chat", ChatRequest{Prompt: "hello"})
	require.Equal(t, http.StatusOK, code)
	cm := decodeData[ChatMessage](t, body)
	assert.True(t, cm.Failed)
	assert.Contains(t, cm.Text, "gemini-2.5-flash")

	_, body = c.do(http.MethodGet, "/api/history", nil)
	assert.Len(t, decodeData[aigc.Messages](t, body), 3)
}

func TestChatMissingKey(t *testing.T) {
	c, m := newTestClient(t, "", "")

	_, body := c.do(http.MethodGet, "/api/config", nil)
	st := decodeData[ConfigStatus](t, body)
	assert.False(t, st.KeyConfigured)
	assert.False(t, st.KeyFromEnv)
	assert.True(t, st.Search)

	for _, path := range []string{"/api/chat", "/api/chat-sse"} {
		code, _ := c.do(http.MethodPost, path, ChatRequest{Prompt: "123 Main Street, Springfield"})
		assert.Equal(t, http.StatusUnauthorized, code)
	}
	assert.Zero(t, m.calls)

	code, _ := c.do(http.MethodPost, "/api/key", KeyRequest{APIKey: "  "})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = c.do(http.MethodPost, "/api/key", KeyRequest{APIKey: "typed-in"})
	require.Equal(t, http.StatusOK, code)
	_, body = c.do(http.MethodGet, "/api/config", nil)
	assert.True(t, decodeData[ConfigStatus](t, body).KeyConfigured)

	code, _ = c.do(http.MethodPost, "/api/chat", ChatRequest{Prompt: "hi"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, m.calls)
}

func TestChatEmptyPrompt(t *testing.T) {
	c, m := newTestClient(t, "k", "")
	code, _ := c.do(http.MethodPost, "/api/chat", ChatRequest{Prompt: " "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Zero(t, m.calls)
}

func TestChatSSE(t *testing.T) {
	c, _ := newTestClient(t, "k", "")
	code, body := c.do(http.MethodPost, "/api/chat-sse", ChatRequest{Prompt: "Fernando"})
	require.Equal(t, http.StatusOK, code)

	out := string(body)
	assert.Contains(t, out, `"delta":"echo: Fernando"`)
	assert.Contains(t, out, `"text":"echo: Fernando"`)
	assert.Contains(t, out, "data: "+esDone)
	assert.Less(t, strings.Index(out, `"delta"`), strings.Index(out, esDone))

	_, hb := c.do(http.MethodGet, "/api/history", nil)
	assert.Len(t, decodeData[aigc.Messages](t, hb), 3)
}

func TestSessionsAreIsolated(t *testing.T) {
	c, _ := newTestClient(t, "k", "")
	c.do(http.MethodPost, "/api/chat", ChatRequest{Prompt: "first browser"})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	other := &testClient{t: t, srv: c.srv, hc: &http.Client{Jar: jar}}
	_, body := other.do(http.MethodGet, "/api/history", nil)
	assert.Len(t, decodeData[aigc.Messages](t, body), 1)
}

func TestChatRateLimit(t *testing.T) {
	c, m := newTestClient(t, "k", "2-M")
	for i := 0; i < 2; i++ {
		code, _ := c.do(http.MethodPost, "/api/chat", ChatRequest{Prompt: "hi"})
		assert.Equal(t, http.StatusOK, code)
	}
	code, _ := c.do(http.MethodPost, "/api/chat", ChatRequest{Prompt: "hi"})
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, 2, m.calls)

	// the rest of the api is not limited
	code, _ = c.do(http.MethodGet, "/api/history", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestConcurrentTurnsOfOneSession(t *testing.T) {
	c, m := newTestClient(t, "k", "")
	c.do(http.MethodGet, "/api/welcome", nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodPost, c.srv.URL+"/api/chat", strings.NewReader(`{"prompt":"hi"}`))
			req.Header.Set("Content-Type", "application/json")
			if resp, err := c.hc.Do(req); err == nil {
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, m.calls)
	_, body := c.do(http.MethodGet, "/api/history", nil)
	assert.Len(t, decodeData[aigc.Messages](t, body), 17)
}

func TestLocksDrainAfterExpiredSessions(t *testing.T) {
	m := &fakeModel{}
	ag := agent.New(agent.Config{APIKey: "k"}, fakeProvider{m: m}, nil)
	sto := stores.NewMemoryStore(time.Millisecond)
	s := newServer(Config{Agent: ag, Store: sto})
	srv := httptest.NewServer(s.ar)
	t.Cleanup(srv.Close)

	for i := 0; i < 50; i++ {
		resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(`{"prompt":"hi"}`))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, 50, m.calls)
	assert.Zero(t, s.locks.Len())
}
