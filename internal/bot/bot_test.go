package bot

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager/internal/model"
	"task-manager/internal/repository"
	"task-manager/internal/service"
)

type fakeMessenger struct {
	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	updates chan tgbotapi.Update
	failFor map[int64]bool
	stop    sync.Once
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{updates: make(chan tgbotapi.Update, 8), failFor: map[int64]bool{}}
}

func (f *fakeMessenger) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	if f.failFor[msg.ChatID] {
		return tgbotapi.Message{}, errors.New("chat not found")
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{}, nil
}

func (f *fakeMessenger) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeMessenger) StopReceivingUpdates() {
	f.stop.Do(func() { close(f.updates) })
}

func (f *fakeMessenger) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

type fixture struct {
	bot        *Bot
	api        *fakeMessenger
	store      repository.Store
	tasks      *service.TaskService
	categories *service.CategoryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := repository.NewDB(":memory:", log)
	require.NoError(t, err)
	store := repository.NewSQLStore(db)
	t.Cleanup(func() { _ = store.Close() })

	api := newFakeMessenger()
	tasks := service.NewTaskService(store, log)
	b := New(api, store.Users(), tasks, service.NewReminderService(store), log)
	b.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return &fixture{bot: b, api: api, store: store, tasks: tasks, categories: service.NewCategoryService(store, log)}
}

func (f *fixture) user(t *testing.T, name string, chatID int64) *model.User {
	t.Helper()
	ctx := context.Background()
	user := &model.User{Name: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, f.store.Users().Create(ctx, user))
	if chatID != 0 {
		require.NoError(t, f.store.Users().SetTelegramChatID(ctx, user.ID, chatID))
		user.TelegramChatID = chatID
	}
	return user
}

func command(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID, Type: "private"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}
}

func TestStartShowsChatID(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.bot.handleMessage(context.Background(), command(777, "/start")))

	sent := f.api.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(777), sent[0].ChatID)
	assert.Contains(t, sent[0].Text, "<code>777</code>")
	assert.Equal(t, tgbotapi.ModeHTML, sent[0].ParseMode)
}

func TestReportRequiresLinkedChat(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.bot.handleMessage(context.Background(), command(5, "/report")))

	sent := f.api.messages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Text, "not linked")
}

func TestReportAndTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", 42)

	work, err := f.categories.Create(ctx, alice, service.CategoryInput{Name: "Work & life"})
	require.NoError(t, err)
	_, err = f.tasks.CreateTask(ctx, alice, service.TaskInput{Title: "Write <spec>", CategoryID: work.ID})
	require.NoError(t, err)
	_, err = f.tasks.CreateTask(ctx, alice, service.TaskInput{Title: "Done already", Status: model.StatusCompleted})
	require.NoError(t, err)

	require.NoError(t, f.bot.handleMessage(ctx, command(42, "/report")))
	require.NoError(t, f.bot.handleMessage(ctx, command(42, "/tasks")))

	sent := f.api.messages()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].Text, "Write &lt;spec&gt;")
	assert.NotContains(t, sent[0].Text, "Done already")
	assert.Contains(t, sent[1].Text, "✅ Done already")
	assert.Contains(t, sent[1].Text, "Write &lt;spec&gt; [Work &amp; life]")
}

func TestUnknownInput(t *testing.T) {
	f := newFixture(t)
	msg := &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 1, Type: "private"}}
	require.NoError(t, f.bot.handleMessage(context.Background(), msg))
	require.NoError(t, f.bot.handleMessage(context.Background(), command(1, "/bogus")))

	sent := f.api.messages()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[1].Text, "Unknown command")
}

func TestSendDailyReports(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice", 1)
	f.user(t, "bob", 2)
	f.user(t, "carol", 0)
	f.api.failFor[2] = true

	require.NoError(t, f.bot.SendDailyReports(context.Background()))

	sent := f.api.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(1), sent[0].ChatID)
	assert.Contains(t, sent[0].Text, "Daily summary")
}

func TestStartStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	f.api.updates <- tgbotapi.Update{Message: command(9, "/help")}
	f.api.updates <- tgbotapi.Update{Message: &tgbotapi.Message{Text: "/help", Chat: &tgbotapi.Chat{ID: 10, Type: "group"}}}

	done := make(chan error, 1)
	go func() { done <- f.bot.Start(ctx) }()

	require.Eventually(t, func() bool { return len(f.api.messages()) == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("bot did not stop")
	}
	assert.Equal(t, int64(9), f.api.messages()[0].ChatID)
}

func TestFormatTaskListTruncates(t *testing.T) {
	tasks := make([]service.TaskView, maxListed+3)
	for i := range tasks {
		tasks[i].Title = "t"
	}
	assert.Contains(t, formatTaskList(tasks), "… and 3 more")
	assert.Equal(t, "You have no tasks yet.", formatTaskList(nil))
}
