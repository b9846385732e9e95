package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"task-manager/internal/model"
	"task-manager/internal/repository"
)

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	store repository.Store
}

func NewReminderService(store repository.Store) *ReminderService {
	return &ReminderService{store: store}
}

// DailySummary lists the user's open tasks ordered by due date, undated last.
// The text is Telegram HTML.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	tasks, err := s.store.Tasks().Find(ctx, repository.TaskFilter{UserID: user.ID})
	if err != nil {
		return "", storeErr("list tasks", err, nil)
	}

	categories, err := s.store.Categories().ListByUser(ctx, user.ID)
	if err != nil {
		return "", storeErr("list categories", err, nil)
	}
	catNames := make(map[string]string, len(categories))
	for _, cat := range categories {
		catNames[cat.ID] = cat.Name
	}

	var open []model.Task
	for _, task := range tasks {
		if task.Status != model.StatusCompleted {
			open = append(open, task)
		}
	}
	sortByDueDate(open)

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily summary</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02 Jan 2006")))

	builder.WriteString("🔥 <b>Open tasks</b>\n")
	if len(open) == 0 {
		builder.WriteString("✨ nothing open\n")
	} else {
		for _, task := range open {
			builder.WriteString(formatTask(task, catNames, now))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

func sortByDueDate(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		switch {
		case tasks[i].DueDate == nil && tasks[j].DueDate == nil:
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		case tasks[i].DueDate == nil:
			return false
		case tasks[j].DueDate == nil:
			return true
		default:
			return tasks[i].DueDate.Before(*tasks[j].DueDate)
		}
	})
}

func formatTask(task model.Task, catNames map[string]string, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	if task.DueDate != nil {
		d := task.DueDate.In(now.Location())
		switch {
		case now.After(d):
			icon = "⚠️"
		case d.Sub(now) <= 48*time.Hour:
			icon = "⏳"
		}
	}
	if task.Status == model.StatusInProgress {
		icon += "🔧"
	}

	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(task.Title)))

	if task.CategoryID != nil {
		if name := strings.TrimSpace(catNames[*task.CategoryID]); name != "" {
			sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(name)))
		}
	}
	if task.Priority == model.PriorityHigh {
		sb.WriteString(" ❗")
	}

	if task.DueDate != nil {
		d := task.DueDate.In(now.Location())
		if now.After(d) {
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s, <b>overdue</b>", d.Format("2006-01-02")))
		} else {
			daysLeft := int(d.Sub(now).Hours()/24) + 1
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · ≈%d day(s) left", d.Format("2006-01-02"), daysLeft))
		}
	}

	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(task.Description)))
	}

	sb.WriteByte('\n')
	return sb.String()
}
