// Package telegram exposes the chatbot as a Telegram bot using long polling.
// Every chat gets its own session, keyed by the chat ID.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	chatService "github.com/menuka400/chatbot-spera/internal/service/chat"
)

const (
	// DefaultMessageLimit is the Telegram cap on one message bubble.
	DefaultMessageLimit = 4096
	defaultPollTimeout  = 30 * time.Second
	retryDelay          = 3 * time.Second

	clearedText = "Conversation history cleared."
	helpText    = "Send me a question and I will answer it, looking things up when needed.\n/clear forgets our conversation."
)

// Bot is the subset of *tgbotapi.BotAPI the channel uses.
type Bot interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Config tunes the channel.
type Config struct {
	Profile      string
	PollTimeout  time.Duration
	MessageLimit int
	Fallback     string
}

// Channel relays Telegram messages to the chat service.
type Channel struct {
	bot     Bot
	chatSvc *chatService.Service
	cfg     Config
	logger  *slog.Logger
	wg      sync.WaitGroup

	mu     sync.Mutex
	queues map[int64][]*tgbotapi.Message
}

// NewBotAPI authorises token against the Bot API. timeout bounds each HTTP
// call and must exceed the long-poll timeout.
func NewBotAPI(token string, timeout time.Duration, debug bool) (*tgbotapi.BotAPI, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram bot token is empty")
	}
	if timeout <= defaultPollTimeout {
		timeout = defaultPollTimeout + 30*time.Second
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	bot.Debug = debug
	return bot, nil
}

// New creates the channel. An empty cfg.Profile uses the service default.
func New(bot Bot, chatSvc *chatService.Service, cfg Config, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = defaultPollTimeout
	}
	if cfg.MessageLimit <= 0 {
		cfg.MessageLimit = DefaultMessageLimit
	}
	if cfg.Profile == "" {
		cfg.Profile = chatSvc.DefaultProfile()
	}
	return &Channel{bot: bot, chatSvc: chatSvc, cfg: cfg, logger: logger, queues: make(map[int64][]*tgbotapi.Message)}
}

// Run polls for updates until ctx is cancelled. Chats are served
// concurrently; messages of one chat are handled one at a time in arrival
// order.
func (c *Channel) Run(ctx context.Context) error {
	defer c.wg.Wait()

	offset := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		req := tgbotapi.NewUpdate(offset)
		req.Timeout = int(c.cfg.PollTimeout / time.Second)
		updates, err := c.bot.GetUpdates(req)
		if err != nil {
			c.logger.Warn("telegram poll failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryDelay):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			if update.Message == nil || update.Message.Chat == nil {
				continue
			}
			c.enqueue(ctx, update.Message)
		}
	}
}

// enqueue appends msg to its chat's queue and starts a worker for the chat
// if none is running.
func (c *Channel) enqueue(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	c.mu.Lock()
	defer c.mu.Unlock()
	pending, running := c.queues[chatID]
	c.queues[chatID] = append(pending, msg)
	if running {
		return
	}
	c.wg.Add(1)
	go c.drain(ctx, chatID)
}

// drain handles queued messages of one chat until the queue is empty.
func (c *Channel) drain(ctx context.Context, chatID int64) {
	defer c.wg.Done()
	for {
		c.mu.Lock()
		pending := c.queues[chatID]
		if len(pending) == 0 {
			delete(c.queues, chatID)
			c.mu.Unlock()
			return
		}
		msg := pending[0]
		c.queues[chatID] = pending[1:]
		c.mu.Unlock()

		c.HandleMessage(ctx, msg)
	}
}

// SessionID maps a chat to its session.
func SessionID(chatID int64) string {
	return "telegram-" + strconv.FormatInt(chatID, 10)
}

// HandleMessage answers one incoming message.
func (c *Channel) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	sessionID := SessionID(chatID)
	logger := c.logger.With("chat_id", chatID, "session", sessionID)

	if msg.IsCommand() {
		c.handleCommand(ctx, logger, sessionID, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if _, err := c.chatSvc.Open(ctx, sessionID, c.cfg.Profile); err != nil {
		logger.Error("open telegram session failed", "error", err)
		c.reply(logger, chatID, c.cfg.Fallback)
		return
	}

	if _, err := c.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		logger.Debug("typing action failed", "error", err)
	}

	outcome, err := c.chatSvc.Converse(ctx, sessionID, text)
	if err != nil {
		logger.Error("telegram chat failed", "error", err)
		c.reply(logger, chatID, c.cfg.Fallback)
		return
	}
	c.reply(logger, chatID, outcome.Text)
}

func (c *Channel) handleCommand(ctx context.Context, logger *slog.Logger, sessionID string, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		if _, err := c.chatSvc.Open(ctx, sessionID, c.cfg.Profile); err != nil {
			logger.Error("open telegram session failed", "error", err)
			c.reply(logger, chatID, c.cfg.Fallback)
			return
		}
		p, err := c.chatSvc.Profile(c.cfg.Profile)
		if err != nil {
			c.reply(logger, chatID, helpText)
			return
		}
		c.reply(logger, chatID, p.Greeting)
	case "clear":
		if err := c.chatSvc.ClearHistory(ctx, sessionID); err != nil && !errors.Is(err, chatService.ErrSessionNotFound) {
			logger.Error("clear telegram session failed", "error", err)
		}
		c.reply(logger, chatID, clearedText)
	default:
		c.reply(logger, chatID, helpText)
	}
}

func (c *Channel) reply(logger *slog.Logger, chatID int64, text string) {
	for _, chunk := range Split(text, c.cfg.MessageLimit) {
		if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			logger.Error("telegram send failed", "error", err)
			return
		}
	}
}

// Split cuts text into pieces of at most limit runes.
func Split(text string, limit int) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return []string{text}
	}
	chunks := make([]string, 0, len(runes)/limit+1)
	for start := 0; start < len(runes); start += limit {
		end := min(start+limit, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
