package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/liut/showsmart/pkg/models/aigc"
)

const (
	dftTimeout = time.Second * 120
)

var (
	ErrEmptyReply = errors.New("model returned no choices")
)

// Generator produces a reply for the next user message.
type Generator interface {
	Generate(ctx context.Context, system string, history aigc.Contents, text string) (string, error)
}

// Streamer is a Generator able to report partial output.
type Streamer interface {
	Generator
	GenerateStream(ctx context.Context, system string, history aigc.Contents, text string, onDelta func(string)) (string, error)
}

// Options of the hosted model
type Options struct {
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Gemini talks to Gemini through its OpenAI compatible endpoint.
type Gemini struct {
	oc          *openai.Client
	model       string
	temperature float32
}

var _ Streamer = (*Gemini)(nil)

// NewGemini ...
func NewGemini(apiKey string, opts Options) *Gemini {
	occ := openai.DefaultConfig(apiKey)
	if len(opts.BaseURL) > 0 {
		occ.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = dftTimeout
	}
	occ.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
	}
	return &Gemini{
		oc:          openai.NewClientWithConfig(occ),
		model:       opts.Model,
		temperature: opts.Temperature,
	}
}

func (g *Gemini) request(system string, history aigc.Contents, text string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages:    BuildMessages(system, history, text),
	}
}

func (g *Gemini) Generate(ctx context.Context, system string, history aigc.Contents, text string) (string, error) {
	res, err := g.oc.CreateChatCompletion(ctx, g.request(system, history, text))
	if err != nil {
		logger().Infow("chat completion fail", "model", g.model, "err", err)
		return "", err
	}
	logger().Debugw("chat completion", "model", res.Model, "usage", &res.Usage)
	if len(res.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return res.Choices[0].Message.Content, nil
}

func (g *Gemini) GenerateStream(ctx context.Context, system string, history aigc.Contents, text string,
	onDelta func(string)) (answer string, err error) {
	req := g.request(system, history, text)
	req.Stream = true
	ccs, err := g.oc.CreateChatCompletionStream(ctx, req)
	if err != nil {
		logger().Infow("call chat stream fail", "model", g.model, "err", err)
		return "", err
	}
	defer ccs.Close()

	for {
		ccsr, err := ccs.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger().Infow("ccs recv fail", "err", err)
			return answer, err
		}
		if len(ccsr.Choices) == 0 {
			continue
		}
		delta := ccsr.Choices[0].Delta.Content
		if len(delta) > 0 {
			answer += delta
			if onDelta != nil {
				onDelta(delta)
			}
		}
		if len(ccsr.Choices[0].FinishReason) > 0 {
			break
		}
	}
	if len(answer) == 0 {
		return "", ErrEmptyReply
	}
	return answer, nil
}

// BuildMessages puts the persona first as a system message, then the history
// with model turns as assistant, then the new user text.
func BuildMessages(system string, history aigc.Contents, text string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if len(system) > 0 {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, c := range history {
		role := openai.ChatMessageRoleUser
		if c.Role == aigc.ContentRoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: c.Text()})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})
}
