package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"task-manager/internal/model"
	"task-manager/internal/repository"
	"task-manager/internal/service"
)

const (
	iconDefault = "🟢"
	iconDone    = "✅"
	maxListed   = 20
)

// Messenger is the part of the Telegram API the bot uses.
// *tgbotapi.BotAPI satisfies it.
type Messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot pushes reminder digests to users who linked a Telegram chat.
type Bot struct {
	api         Messenger
	users       repository.UserStore
	taskSvc     *service.TaskService
	reminderSvc *service.ReminderService
	log         *logrus.Logger
	now         func() time.Time
}

// Connect authorizes token against the Telegram API.
func Connect(token string, log *logrus.Logger) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.WithField("account", api.Self.UserName).Info("telegram bot authorized")
	return api, nil
}

func New(api Messenger, users repository.UserStore, taskSvc *service.TaskService, reminderSvc *service.ReminderService, log *logrus.Logger) *Bot {
	return &Bot{
		api:         api,
		users:       users,
		taskSvc:     taskSvc,
		reminderSvc: reminderSvc,
		log:         log,
		now:         time.Now,
	}
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		msg := update.Message
		if msg == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
			continue
		}
		if err := b.handleMessage(ctx, msg); err != nil {
			b.log.WithError(err).WithField("chat_id", msg.Chat.ID).Warn("handle message")
		}
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.IsCommand() {
		return b.sendText(msg.Chat.ID, "Unknown input. Send /help for the list of commands.")
	}

	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "tasks":
		return b.handleTasks(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. Send /help for the list of commands.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	text := fmt.Sprintf(
		"👋 Hi! Your chat id is <code>%d</code>.\n\n"+
			"Link it to your account with <code>PUT /api/users/me/telegram</code> "+
			"and body <code>{\"chatId\": %d}</code> to receive a daily summary here.",
		msg.Chat.ID, msg.Chat.ID,
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := strings.Join([]string{
		"<b>Commands</b>",
		"/start shows your chat id",
		"/report sends today's summary",
		"/tasks lists your tasks",
		"/help shows this message",
	}, "\n")
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, ok, err := b.linkedUser(ctx, msg.Chat.ID)
	if err != nil || !ok {
		return err
	}
	text, err := b.reminderSvc.DailySummary(ctx, *user, b.now())
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, ok, err := b.linkedUser(ctx, msg.Chat.ID)
	if err != nil || !ok {
		return err
	}
	tasks, err := b.taskSvc.ListTasks(ctx, user)
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, formatTaskList(tasks))
}

// linkedUser finds the account linked to chatID. When there is none it tells
// the chat how to link and returns ok == false.
func (b *Bot) linkedUser(ctx context.Context, chatID int64) (*model.User, bool, error) {
	user, err := b.users.FindByTelegramChatID(ctx, chatID)
	switch {
	case err == nil:
		return user, true, nil
	case errors.Is(err, repository.ErrNotFound):
		return nil, false, b.sendText(chatID, "This chat is not linked to an account yet. Send /start to see how.")
	default:
		return nil, false, err
	}
}

// SendDailyReports sends the summary to every linked chat. Failures for one
// user are logged and do not stop the others.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.users.ListTelegramLinked(ctx)
	if err != nil {
		return err
	}
	now := b.now()
	sent := 0
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		entry := b.log.WithField("user_id", user.ID)
		text, err := b.reminderSvc.DailySummary(ctx, user, now)
		if err != nil {
			entry.WithError(err).Warn("build summary")
			continue
		}
		if err := b.sendText(user.TelegramChatID, text); err != nil {
			entry.WithError(err).Warn("send summary")
			continue
		}
		sent++
	}
	b.log.WithFields(logrus.Fields{"linked": len(users), "sent": sent}).Info("daily reports sent")
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := b.api.Send(msg)
	return err
}

func formatTaskList(tasks []service.TaskView) string {
	if len(tasks) == 0 {
		return "You have no tasks yet."
	}
	var sb strings.Builder
	sb.WriteString("📋 <b>Your tasks</b>\n")
	for i, task := range tasks {
		if i == maxListed {
			sb.WriteString(fmt.Sprintf("… and %d more\n", len(tasks)-maxListed))
			break
		}
		icon := iconDefault
		if task.Status == model.StatusCompleted {
			icon = iconDone
		}
		sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(task.Title)))
		if task.Category != nil {
			sb.WriteString(fmt.Sprintf(" [%s]", html.EscapeString(task.Category.Name)))
		}
		if task.DueDate != nil {
			sb.WriteString(fmt.Sprintf(" · due %s", task.DueDate.Format("2006-01-02")))
		}
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String())
}
