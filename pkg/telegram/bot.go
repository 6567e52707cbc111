package telegram

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/liut/showsmart/pkg/models/aigc"
	"github.com/liut/showsmart/pkg/services/agent"
	"github.com/liut/showsmart/pkg/services/stores"
)

const (
	sessionPrefix = "tg-"

	missingKeyReply = "The assistant is not configured yet, the server has no Google API key."
)

func logger() *zap.SugaredLogger {
	return zap.S()
}

// Handler turns telegram text messages into conversation turns, one session per chat.
type Handler struct {
	agent *agent.Agent
	sto   stores.SessionStore
	locks *stores.SessionLocks // handlers run concurrently
}

// NewHandler ...
func NewHandler(ag *agent.Agent, sto stores.SessionStore) *Handler {
	return &Handler{agent: ag, sto: sto, locks: stores.NewSessionLocks()}
}

// Run connects to telegram and blocks until ctx is done.
func Run(ctx context.Context, token string, h *Handler) error {
	b, err := bot.New(token, bot.WithDefaultHandler(h.handleText))
	if err != nil {
		return err
	}
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.handleStart)
	logger().Infow("telegram bot started")
	b.Start(ctx)
	return nil
}

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	send(ctx, b, chatID, h.Reset(ctx, chatID))
}

func (h *Handler) handleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || len(update.Message.Text) == 0 {
		return
	}
	chatID := update.Message.Chat.ID
	_, _ = b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping})
	send(ctx, b, chatID, h.Reply(ctx, chatID, update.Message.Text))
}

// Reset starts the chat over and returns the welcome.
func (h *Handler) Reset(ctx context.Context, chatID int64) string {
	id := sessionID(chatID)
	defer h.locks.Lock(id)()
	sess := aigc.NewSessionWithID(id, h.agent.Welcome())
	if err := h.sto.Save(ctx, sess); err != nil {
		logger().Infow("save session fail", "chat", chatID, "err", err)
	}
	return h.agent.Welcome()
}

// Reply runs one turn for the chat and returns the text to send back.
func (h *Handler) Reply(ctx context.Context, chatID int64, text string) string {
	id := sessionID(chatID)
	defer h.locks.Lock(id)()
	sess, err := h.sto.Get(ctx, id)
	if errors.Is(err, stores.ErrNotFound) {
		sess, err = aigc.NewSessionWithID(id, h.agent.Welcome()), nil
	}
	if err != nil {
		logger().Infow("load session fail", "chat", chatID, "err", err)
		return "Sorry, your conversation could not be loaded."
	}

	rep, err := h.agent.Turn(ctx, sess, text)
	switch {
	case errors.Is(err, agent.ErrMissingAPIKey):
		return missingKeyReply
	case err != nil:
		return err.Error()
	}
	if err = h.sto.Save(ctx, sess); err != nil {
		logger().Infow("save session fail", "chat", chatID, "err", err)
	}
	return rep.Text
}

func send(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	for _, part := range SplitMessage(text, maxMessageLen) {
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: part}); err != nil {
			logger().Infow("send message fail", "chat", chatID, "err", err)
			return
		}
	}
}

func sessionID(chatID int64) string {
	return sessionPrefix + strconv.FormatInt(chatID, 10)
}
