package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager/internal/model"
)

func TestDailySummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	now := env.clock.Now()

	work, err := env.categories.Create(ctx, alice, CategoryInput{Name: "Work"})
	require.NoError(t, err)

	overdue := now.Add(-24 * time.Hour)
	soon := now.Add(24 * time.Hour)
	later := now.Add(10 * 24 * time.Hour)

	_, err = env.tasks.CreateTask(ctx, alice, TaskInput{Title: "Later <draft>", DueDate: &later, Description: "notes"})
	require.NoError(t, err)
	_, err = env.tasks.CreateTask(ctx, alice, TaskInput{Title: "Overdue", DueDate: &overdue, Priority: model.PriorityHigh})
	require.NoError(t, err)
	_, err = env.tasks.CreateTask(ctx, alice, TaskInput{Title: "Soon", DueDate: &soon, CategoryID: work.ID, Status: model.StatusInProgress})
	require.NoError(t, err)
	_, err = env.tasks.CreateTask(ctx, alice, TaskInput{Title: "Someday"})
	require.NoError(t, err)
	_, err = env.tasks.CreateTask(ctx, alice, TaskInput{Title: "Finished", Status: model.StatusCompleted})
	require.NoError(t, err)

	text, err := env.reminders.DailySummary(ctx, *alice, now)
	require.NoError(t, err)

	assert.Contains(t, text, "01 May 2024")
	assert.NotContains(t, text, "Finished")
	assert.Contains(t, text, "Later &lt;draft&gt;")
	assert.Contains(t, text, "⚠️ Overdue ❗")
	assert.Contains(t, text, "<b>overdue</b>")
	assert.Contains(t, text, "⏳🔧 Soon <i>(Work)</i>")
	assert.Contains(t, text, "📝 notes")

	order := []string{"Overdue", "Soon", "Later", "Someday"}
	last := -1
	for _, title := range order {
		idx := strings.Index(text, title)
		require.NotEqual(t, -1, idx, title)
		assert.Greater(t, idx, last, "%s out of order", title)
		last = idx
	}
}

func TestDailySummaryEmpty(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	text, err := env.reminders.DailySummary(context.Background(), *alice, env.clock.Now())
	require.NoError(t, err)
	assert.Contains(t, text, "nothing open")
}
