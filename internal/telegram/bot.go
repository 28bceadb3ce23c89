// Package telegram runs the Telegram front end: long-polling updates, the bot
// commands, and the buffered LLM conversation per chat.
package telegram

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/aria-bots/internal/conversation"
	"github.com/wolfman30/aria-bots/internal/format"
	"github.com/wolfman30/aria-bots/internal/llm"
	"github.com/wolfman30/aria-bots/internal/observability/metrics"
	"github.com/wolfman30/aria-bots/internal/users"
	"github.com/wolfman30/aria-bots/pkg/logging"
)

var tracer = otel.Tracer("aria.internal.telegram")

const (
	pipeline        = "telegram"
	maxMessageLen   = 4000
	minSummaryChars = 50
	parseMode       = tgbotapi.ModeMarkdown
)

// PersonalityPrompt is the system entry of every Telegram conversation.
const PersonalityPrompt = `You are a helpful, intelligent assistant with a human-like personality.
Communicate naturally but professionally without using emojis.
You can use Telegram's markdown formatting when appropriate:
- *bold text* for emphasis
- _italic text_ for subtle points
- ` + "`code`" + ` for technical terms
- ` + "```code blocks```" + ` for longer code
When organizing information, use clear headings with *CAPITALIZED TITLES*
Always be concise but thorough, and speak with a touch of warmth.`

// User-facing replies.
const (
	welcomeMessage       = "Hello! I am Aria, your assistant. I can help answer questions, summarize text, and more."
	summaryTooShort      = "Please provide a longer text to summarize (at least 50 characters)."
	summaryFailed        = "Sorry, I encountered an error while summarizing."
	notAuthorized        = "You are not authorized to use this command."
	historyCleared       = "Your conversation history has been cleared."
	noHistory            = "No conversation history to clear."
	completionFailed     = "Sorry, I encountered an error. Please try again later."
	summarizeInstruction = "Summarize this text concisely: "
)

// API is the subset of the Bot API client used by Bot.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Completer produces the assistant's next message for a buffer.
type Completer interface {
	Complete(ctx context.Context, entries []conversation.Entry) (string, error)
}

// Config holds the optional parts of a Bot.
type Config struct {
	AdminIDs []int64
	Metrics  *metrics.BotMetrics
	Logger   *logging.Logger
}

// Bot answers Telegram updates.
type Bot struct {
	api       API
	buffers   *conversation.Manager
	completer Completer
	sessions  *users.SessionTracker
	admins    map[int64]struct{}
	metrics   *metrics.BotMetrics
	logger    *logging.Logger
	memStats  func() uint64
}

// NewBot wires a bot. The buffer manager should be built with PersonalityPrompt and
// conversation.TelegramBufferLimit.
func NewBot(api API, buffers *conversation.Manager, completer Completer, sessions *users.SessionTracker, cfg Config) *Bot {
	if api == nil {
		panic("telegram: api cannot be nil")
	}
	if buffers == nil {
		panic("telegram: conversation manager cannot be nil")
	}
	if completer == nil {
		panic("telegram: completer cannot be nil")
	}
	if sessions == nil {
		sessions = users.NewSessionTracker()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	admins := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}
	return &Bot{
		api:       api,
		buffers:   buffers,
		completer: completer,
		sessions:  sessions,
		admins:    admins,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.WithComponent("telegram"),
		memStats:  heapInUse,
	}
}

// Run polls for updates until ctx is cancelled. Each update is handled on its own
// goroutine; turns of the same chat are serialized by the buffer manager.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("telegram bot stopping")
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes a single update.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}
	if strings.TrimSpace(msg.Text) == "" {
		return
	}

	ctx, span := tracer.Start(ctx, "telegram.handle_update")
	defer span.End()
	span.SetAttributes(attribute.Int64("telegram.chat_id", msg.Chat.ID))

	if msg.IsCommand() {
		span.SetAttributes(attribute.String("telegram.command", msg.Command()))
		b.handleCommand(ctx, msg)
		return
	}
	// Commands without a bot_command entity still start with a slash and are not chat.
	if strings.HasPrefix(msg.Text, "/") {
		return
	}
	b.handleText(ctx, msg)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		b.sessions.Register(userKey(msg.From.ID))
		b.send(chatID, welcomeMessage, true)
	case "summarize":
		b.summarize(ctx, chatID, msg.CommandArguments())
	case "stats":
		b.stats(ctx, chatID, msg.From.ID)
	case "clear":
		b.clear(ctx, chatID)
	default:
		b.logger.Debug("ignoring unknown command", "command", msg.Command())
	}
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	b.metrics.ObserveInbound(pipeline, string(conversation.KindText))
	b.sessions.Record(userKey(msg.From.ID))

	reply, err := b.respond(ctx, chatID, msg.Text, time.Unix(int64(msg.Date), 0).UTC())
	b.metrics.ObserveRoute(pipeline, "llm")
	if err != nil {
		b.logger.Error("telegram completion failed", "chat_id", chatID, "error", err)
		b.send(chatID, completionFailed, false)
		return
	}
	b.send(chatID, reply, true)
}

func (b *Bot) respond(ctx context.Context, chatID int64, text string, at time.Time) (string, error) {
	key := chatKey(chatID)
	endTurn := b.buffers.BeginTurn(key)
	defer endTurn()

	entries, err := b.buffers.Append(ctx, key, conversation.UserEntry(text, at))
	if err != nil {
		return "", fmt.Errorf("telegram: append user message: %w", err)
	}
	b.typing(chatID)

	reply, err := b.complete(ctx, entries)
	if err != nil {
		return "", err
	}
	reply = format.Format(reply, format.Telegram)
	if _, err := b.buffers.Append(ctx, key, conversation.AssistantEntry(reply, time.Now().UTC())); err != nil {
		return "", fmt.Errorf("telegram: append reply: %w", err)
	}
	return reply, nil
}

func (b *Bot) complete(ctx context.Context, entries []conversation.Entry) (string, error) {
	started := time.Now()
	reply, err := b.completer.Complete(ctx, entries)
	b.metrics.ObserveCompletion(pipeline, time.Since(started).Seconds(), llm.Class(err))
	return reply, err
}

func (b *Bot) summarize(ctx context.Context, chatID int64, text string) {
	text = strings.TrimSpace(text)
	if len(text) < minSummaryChars {
		b.send(chatID, summaryTooShort, false)
		return
	}
	b.typing(chatID)

	entries := []conversation.Entry{
		b.buffers.SystemEntry(),
		conversation.UserEntry(summarizeInstruction+text, time.Now().UTC()),
	}
	summary, err := b.complete(ctx, entries)
	if err != nil {
		b.logger.Error("telegram summary failed", "chat_id", chatID, "error", err)
		b.send(chatID, summaryFailed, false)
		return
	}
	b.send(chatID, "*SUMMARY*\n\n"+summary, true)
}

func (b *Bot) stats(ctx context.Context, chatID, userID int64) {
	if _, ok := b.admins[userID]; !ok {
		b.send(chatID, notAuthorized, false)
		return
	}
	active, err := b.buffers.ActiveConversations(ctx)
	if err != nil {
		b.logger.Warn("failed to count conversations", "error", err)
	}
	b.send(chatID, b.statsMessage(active), true)
}

func (b *Bot) statsMessage(activeConversations int) string {
	memMB := int64(math.Round(float64(b.memStats()) / 1024 / 1024))
	var sb strings.Builder
	sb.WriteString("*BOT STATE*\n\n")
	fmt.Fprintf(&sb, "*Active Users:* %d\n", b.sessions.ActiveUsers())
	fmt.Fprintf(&sb, "*Total Messages Processed:* %d\n", b.sessions.TotalMessages())
	fmt.Fprintf(&sb, "*Uptime:* %d minutes\n", int64(b.sessions.Uptime()/time.Minute))
	fmt.Fprintf(&sb, "*Memory Usage:* %d MB\n", memMB)
	fmt.Fprintf(&sb, "*Active Conversations:* %d", activeConversations)
	return sb.String()
}

func (b *Bot) clear(ctx context.Context, chatID int64) {
	cleared, err := b.buffers.Clear(ctx, chatKey(chatID))
	if err != nil {
		b.logger.Error("failed to clear conversation", "chat_id", chatID, "error", err)
		b.send(chatID, completionFailed, false)
		return
	}
	if !cleared {
		b.send(chatID, noHistory, false)
		return
	}
	b.send(chatID, historyCleared, false)
}

func (b *Bot) typing(chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.logger.Debug("failed to send typing action", "chat_id", chatID, "error", err)
	}
}

// send delivers text in chunks under Telegram's message size limit. A Markdown chunk the
// API refuses to parse is resent as plain text.
func (b *Bot) send(chatID int64, text string, markdown bool) {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if markdown {
			msg.ParseMode = parseMode
		}
		_, err := b.api.Send(msg)
		if err != nil && markdown && strings.Contains(err.Error(), "can't parse entities") {
			b.logger.Warn("telegram markdown parse error, retrying as plain text", "chat_id", chatID)
			_, err = b.api.Send(tgbotapi.NewMessage(chatID, chunk))
		}
		b.metrics.ObserveOutbound(pipeline, err)
		if err != nil {
			b.logger.Error("telegram send failed", "chat_id", chatID, "error", err)
			return
		}
	}
}

// splitMessage cuts text into chunks of at most limit bytes, preferring newline
// boundaries in the second half of a chunk.
func splitMessage(text string, limit int) []string {
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut < limit/2 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func chatKey(chatID int64) string {
	return "telegram:" + strconv.FormatInt(chatID, 10)
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func heapInUse() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc
}
