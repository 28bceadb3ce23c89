package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/aria-bots/internal/conversation"
	"github.com/wolfman30/aria-bots/internal/users"
	"github.com/wolfman30/aria-bots/pkg/logging"
)

const (
	chatID  int64 = 42
	userID  int64 = 7
	adminID int64 = 1
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	sendErr  func(tgbotapi.MessageConfig) error
	updates  chan tgbotapi.Update
	stopped  bool
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	if f.sendErr != nil {
		if err := f.sendErr(msg); err != nil {
			return tgbotapi.Message{}, err
		}
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) last() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fakeCompleter struct {
	reply   string
	err     error
	entries []conversation.Entry
}

func (f *fakeCompleter) Complete(_ context.Context, entries []conversation.Entry) (string, error) {
	f.entries = entries
	return f.reply, f.err
}

func newTestBot(t *testing.T) (*Bot, *fakeAPI, *fakeCompleter, *conversation.Manager) {
	t.Helper()
	api := &fakeAPI{updates: make(chan tgbotapi.Update)}
	completer := &fakeCompleter{reply: "*Hello* there"}
	buffers := conversation.NewManager(conversation.NewMemoryStore(), PersonalityPrompt, conversation.TelegramBufferLimit)
	bot := NewBot(api, buffers, completer, users.NewSessionTracker(), Config{
		AdminIDs: []int64{adminID},
		Logger:   logging.Discard(),
	})
	return bot, api, completer, buffers
}

func textUpdate(from int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		Text: text,
		Date: int(time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC).Unix()),
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: from},
	}
	if strings.HasPrefix(text, "/") {
		command := strings.SplitN(text, " ", 2)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command)}}
	}
	return tgbotapi.Update{Message: msg}
}

func TestStartRegistersUser(t *testing.T) {
	bot, api, _, _ := newTestBot(t)
	bot.HandleUpdate(context.Background(), textUpdate(userID, "/start"))

	require.Len(t, api.sent, 1)
	assert.Equal(t, welcomeMessage, api.sent[0].Text)
	assert.Equal(t, chatID, api.sent[0].ChatID)
	assert.Equal(t, 1, bot.sessions.ActiveUsers())
	assert.Zero(t, bot.sessions.TotalMessages())
}

func TestTextMessageUsesConversation(t *testing.T) {
	bot, api, completer, buffers := newTestBot(t)
	ctx := context.Background()

	bot.HandleUpdate(ctx, textUpdate(userID, "tell me a joke"))

	require.Len(t, api.sent, 1)
	assert.Equal(t, "*Hello* there", api.sent[0].Text)
	assert.Equal(t, tgbotapi.ModeMarkdown, api.sent[0].ParseMode)
	require.Len(t, api.requests, 1)
	action, ok := api.requests[0].(tgbotapi.ChatActionConfig)
	require.True(t, ok)
	assert.Equal(t, tgbotapi.ChatTyping, action.Action)

	require.Len(t, completer.entries, 2)
	assert.Equal(t, conversation.RoleSystem, completer.entries[0].Role)
	assert.Equal(t, PersonalityPrompt, completer.entries[0].Content)

	history, err := buffers.History(ctx, chatKey(chatID))
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "tell me a joke", history[1].Content)
	assert.Equal(t, "*Hello* there", history[2].Content)
	assert.EqualValues(t, 1, bot.sessions.TotalMessages())
}

func TestTextMessageCompletionError(t *testing.T) {
	bot, api, completer, _ := newTestBot(t)
	completer.err = errors.New("upstream down")

	bot.HandleUpdate(context.Background(), textUpdate(userID, "hi"))

	require.Len(t, api.sent, 1)
	assert.Equal(t, completionFailed, api.sent[0].Text)
}

func TestSummarize(t *testing.T) {
	bot, api, completer, buffers := newTestBot(t)
	ctx := context.Background()

	bot.HandleUpdate(ctx, textUpdate(userID, "/summarize too short"))
	assert.Equal(t, summaryTooShort, api.last().Text)

	long := strings.Repeat("Go is an open source programming language. ", 3)
	completer.reply = "Go is a language."
	bot.HandleUpdate(ctx, textUpdate(userID, "/summarize "+long))

	assert.Equal(t, "*SUMMARY*\n\nGo is a language.", api.last().Text)
	require.Len(t, completer.entries, 2)
	assert.Equal(t, summarizeInstruction+strings.TrimSpace(long), completer.entries[1].Content)

	active, err := buffers.ActiveConversations(ctx)
	require.NoError(t, err)
	assert.Zero(t, active, "summaries do not touch the conversation buffer")
}

func TestSummarizeFailure(t *testing.T) {
	bot, api, completer, _ := newTestBot(t)
	completer.err = errors.New("boom")

	bot.HandleUpdate(context.Background(), textUpdate(userID, "/summarize "+strings.Repeat("x", 60)))
	assert.Equal(t, summaryFailed, api.last().Text)
}

func TestStats(t *testing.T) {
	bot, api, _, _ := newTestBot(t)
	bot.memStats = func() uint64 { return 5 * 1024 * 1024 }
	ctx := context.Background()

	bot.HandleUpdate(ctx, textUpdate(userID, "/stats"))
	assert.Equal(t, notAuthorized, api.last().Text)

	bot.HandleUpdate(ctx, textUpdate(userID, "hello"))
	bot.HandleUpdate(ctx, textUpdate(adminID, "/stats"))

	stats := api.last().Text
	assert.True(t, strings.HasPrefix(stats, "*BOT STATE*\n\n"))
	assert.Contains(t, stats, "*Active Users:* 1\n")
	assert.Contains(t, stats, "*Total Messages Processed:* 1\n")
	assert.Contains(t, stats, "*Uptime:* 0 minutes\n")
	assert.Contains(t, stats, "*Memory Usage:* 5 MB\n")
	assert.Contains(t, stats, "*Active Conversations:* 1")
}

func TestClear(t *testing.T) {
	bot, api, _, buffers := newTestBot(t)
	ctx := context.Background()

	bot.HandleUpdate(ctx, textUpdate(userID, "/clear"))
	assert.Equal(t, noHistory, api.last().Text)

	bot.HandleUpdate(ctx, textUpdate(userID, "remember this"))
	bot.HandleUpdate(ctx, textUpdate(userID, "/clear"))
	assert.Equal(t, historyCleared, api.last().Text)

	history, err := buffers.History(ctx, chatKey(chatID))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, conversation.RoleSystem, history[0].Role)
}

func TestMarkdownFallsBackToPlainText(t *testing.T) {
	bot, api, _, _ := newTestBot(t)
	api.sendErr = func(msg tgbotapi.MessageConfig) error {
		if msg.ParseMode != "" {
			return errors.New("Bad Request: can't parse entities: unclosed bold")
		}
		return nil
	}

	bot.HandleUpdate(context.Background(), textUpdate(userID, "hi"))

	require.Len(t, api.sent, 1)
	assert.Empty(t, api.sent[0].ParseMode)
	assert.Equal(t, "*Hello* there", api.sent[0].Text)
}

func TestIgnoresEmptyAndUnknown(t *testing.T) {
	bot, api, _, _ := newTestBot(t)
	ctx := context.Background()

	bot.HandleUpdate(ctx, tgbotapi.Update{})
	bot.HandleUpdate(ctx, textUpdate(userID, "   "))
	bot.HandleUpdate(ctx, textUpdate(userID, "/unknown"))

	assert.Empty(t, api.sent)
}

func TestSplitMessage(t *testing.T) {
	assert.Nil(t, splitMessage("", 10))
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
	assert.Equal(t, []string{"aaaaaaaaaa", "bbb"}, splitMessage("aaaaaaaaaabbb", 10))
	assert.Equal(t, []string{"aaaaaa", "\nbbbbbb"}, splitMessage("aaaaaa\nbbbbbb", 10))

	chunks := splitMessage(strings.Repeat("é", 6), 5)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 5)
		assert.True(t, strings.HasPrefix(c, "é"))
	}
	assert.Equal(t, strings.Repeat("é", 6), strings.Join(chunks, ""))
}

func TestRunStopsOnCancel(t *testing.T) {
	bot, api, _, _ := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.True(t, api.stopped)
}

func TestNewBotPanicsOnMissingDeps(t *testing.T) {
	assert.Panics(t, func() { NewBot(nil, nil, nil, nil, Config{}) })
}
