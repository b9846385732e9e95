package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager/internal/model"
	"task-manager/internal/repository"
)

func TestCreateTaskDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	task, err := env.tasks.CreateTask(ctx, alice, TaskInput{Title: " Write spec ", Description: " notes "})
	require.NoError(t, err)
	assert.Equal(t, "Write spec", task.Title)
	assert.Equal(t, "notes", task.Description)
	assert.Equal(t, model.StatusPending, task.Status)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Nil(t, task.CategoryID)
	assert.Empty(t, task.CommentIDs)

	_, err = env.tasks.CreateTask(ctx, alice, TaskInput{Title: "  "})
	assert.ErrorIs(t, err, ErrMissingTitle)

	_, err = env.tasks.CreateTask(ctx, alice, TaskInput{Title: "x", Status: "done"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = env.tasks.CreateTask(ctx, alice, TaskInput{Title: "x", Priority: "urgent"})
	assert.ErrorIs(t, err, ErrInvalidPriority)
}

func TestCreateTaskRejectsForeignCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	bobs, err := env.categories.Create(ctx, bob, CategoryInput{Name: "Private"})
	require.NoError(t, err)

	_, err = env.tasks.CreateTask(ctx, alice, TaskInput{Title: "sneaky", CategoryID: bobs.ID})
	assert.ErrorIs(t, err, ErrCategoryNotOwned)

	_, err = env.tasks.CreateTask(ctx, alice, TaskInput{Title: "ghost", CategoryID: "no-such-category"})
	assert.ErrorIs(t, err, ErrCategoryNotOwned)

	tasks, err := env.tasks.ListTasks(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestUpdateTaskPartial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	work, err := env.categories.Create(ctx, alice, CategoryInput{Name: "Work"})
	require.NoError(t, err)
	bobs, err := env.categories.Create(ctx, bob, CategoryInput{Name: "Work"})
	require.NoError(t, err)

	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	task, err := env.tasks.CreateTask(ctx, alice, TaskInput{
		Title:       "Write spec",
		Description: "draft",
		Priority:    model.PriorityHigh,
		DueDate:     &due,
	})
	require.NoError(t, err)

	updated, err := env.tasks.UpdateTask(ctx, alice, task.ID, repository.TaskPatch{
		Status:     ptr(model.StatusInProgress),
		CategoryID: ptr(work.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, updated.Status)
	assert.Equal(t, "Write spec", updated.Title)
	assert.Equal(t, "draft", updated.Description)
	assert.Equal(t, model.PriorityHigh, updated.Priority)
	require.NotNil(t, updated.DueDate)
	assert.True(t, updated.DueDate.Equal(due))
	require.NotNil(t, updated.CategoryID)
	assert.Equal(t, work.ID, *updated.CategoryID)

	_, err = env.tasks.UpdateTask(ctx, alice, task.ID, repository.TaskPatch{CategoryID: ptr(bobs.ID)})
	assert.ErrorIs(t, err, ErrCategoryNotOwned)

	_, err = env.tasks.UpdateTask(ctx, alice, task.ID, repository.TaskPatch{Title: ptr(" ")})
	assert.ErrorIs(t, err, ErrMissingTitle)

	_, err = env.tasks.UpdateTask(ctx, alice, task.ID, repository.TaskPatch{Priority: ptr(model.TaskPriority("urgent"))})
	assert.ErrorIs(t, err, ErrInvalidPriority)

	cleared, err := env.tasks.UpdateTask(ctx, alice, task.ID, repository.TaskPatch{CategoryID: ptr(""), ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.CategoryID)
	assert.Nil(t, cleared.DueDate)
	assert.Equal(t, model.StatusInProgress, cleared.Status)

	_, err = env.tasks.UpdateTask(ctx, alice, "missing", repository.TaskPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	task := env.task(t, alice, "mine")

	_, err := env.tasks.GetTask(ctx, bob, task.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.tasks.UpdateTask(ctx, bob, task.ID, repository.TaskPatch{Title: ptr("stolen")})
	assert.ErrorIs(t, err, ErrForbidden)

	assert.ErrorIs(t, env.tasks.DeleteTask(ctx, bob, task.ID), ErrForbidden)

	_, err = env.comments.AddComment(ctx, bob, task.ID, "hi")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.comments.GetComments(ctx, bob, task.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	reloaded, err := env.store.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", reloaded.Title)

	bobsTasks, err := env.tasks.ListTasks(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, bobsTasks)

	_, err = env.tasks.GetTask(ctx, bob, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestDeleteTaskRemovesComments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	task := env.task(t, alice, "Write spec")
	keep := env.task(t, alice, "Other")

	for _, text := range []string{"one", "two", "three"} {
		_, err := env.comments.AddComment(ctx, alice, task.ID, text)
		require.NoError(t, err)
	}
	_, err := env.comments.AddComment(ctx, alice, keep.ID, "stays")
	require.NoError(t, err)

	require.NoError(t, env.tasks.DeleteTask(ctx, alice, task.ID))
	assert.EqualValues(t, 3, env.recorder.cascades["comment"])

	left, err := env.store.Comments().ListByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	other, err := env.store.Comments().ListByTask(ctx, keep.ID)
	require.NoError(t, err)
	assert.Len(t, other, 1)

	_, err = env.tasks.GetTask(ctx, alice, task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.ErrorIs(t, env.tasks.DeleteTask(ctx, alice, task.ID), ErrTaskNotFound)
}

func TestGetTaskDetail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	work, err := env.categories.Create(ctx, alice, CategoryInput{Name: "Work"})
	require.NoError(t, err)
	task, err := env.tasks.CreateTask(ctx, alice, TaskInput{Title: "t", CategoryID: work.ID})
	require.NoError(t, err)

	first, err := env.comments.AddComment(ctx, alice, task.ID, "first")
	require.NoError(t, err)
	env.clock.Advance(time.Minute)
	second, err := env.comments.AddComment(ctx, alice, task.ID, "second")
	require.NoError(t, err)

	detail, err := env.tasks.GetTask(ctx, alice, task.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Category)
	assert.Equal(t, "Work", detail.Category.Name)
	require.Len(t, detail.Comments, 2)
	assert.Equal(t, second.ID, detail.Comments[0].ID)
	assert.Equal(t, first.ID, detail.Comments[1].ID)
	assert.Equal(t, AuthorRef{ID: alice.ID, Name: "alice"}, detail.Comments[0].User)
	assert.Equal(t, []string{first.ID, second.ID}, detail.CommentIDs)
}

func TestSearchTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	day := func(d int) *time.Time {
		v := time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC)
		return &v
	}

	fooBar, err := env.tasks.CreateTask(ctx, alice, TaskInput{Title: "Foo bar", DueDate: day(1)})
	require.NoError(t, err)
	xfooy, err := env.tasks.CreateTask(ctx, alice, TaskInput{Title: "xfooy", Priority: model.PriorityHigh, DueDate: day(10)})
	require.NoError(t, err)
	done, err := env.tasks.CreateTask(ctx, alice, TaskInput{
		Title:       "Groceries",
		Description: "buy FOOD",
		Status:      model.StatusCompleted,
		DueDate:     day(20),
	})
	require.NoError(t, err)
	_, err = env.tasks.CreateTask(ctx, bob, TaskInput{Title: "foo of bob"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter SearchFilter
		want   []string
	}{
		{"title substring", SearchFilter{Title: "foo"}, []string{fooBar.ID, xfooy.ID}},
		{"description substring", SearchFilter{Description: "food"}, []string{done.ID}},
		{"status", SearchFilter{Status: model.StatusCompleted}, []string{done.ID}},
		{"priority", SearchFilter{Priority: model.PriorityHigh}, []string{xfooy.ID}},
		{"inclusive range", SearchFilter{StartDate: day(1), EndDate: day(10)}, []string{fooBar.ID, xfooy.ID}},
		{"open start", SearchFilter{EndDate: day(1)}, []string{fooBar.ID}},
		{"open end", SearchFilter{StartDate: day(10)}, []string{xfooy.ID, done.ID}},
		{"combined", SearchFilter{Title: "FOO", Priority: model.PriorityHigh}, []string{xfooy.ID}},
		{"no filters", SearchFilter{}, []string{fooBar.ID, xfooy.ID, done.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.tasks.SearchTasks(ctx, alice, tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, task := range got {
				ids = append(ids, task.ID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}

	_, err = env.tasks.SearchTasks(ctx, alice, SearchFilter{Status: "done"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTaskResponsesCarryCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	work, err := env.categories.Create(ctx, alice, CategoryInput{Name: "Work", Color: "#ff0000"})
	require.NoError(t, err)
	want := &CategoryRef{ID: work.ID, Name: "Work", Color: "#ff0000"}

	created, err := env.tasks.CreateTask(ctx, alice, TaskInput{Title: "Write spec", CategoryID: work.ID})
	require.NoError(t, err)
	assert.Equal(t, want, created.Category)
	plain := env.task(t, alice, "Uncategorized")

	listed, err := env.tasks.ListTasks(ctx, alice)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	for _, task := range listed {
		if task.ID == plain.ID {
			assert.Nil(t, task.Category)
		} else {
			assert.Equal(t, want, task.Category)
		}
	}

	found, err := env.tasks.SearchTasks(ctx, alice, SearchFilter{Title: "spec"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, want, found[0].Category)

	inWork, err := env.categories.TasksByCategory(ctx, alice, work.ID)
	require.NoError(t, err)
	require.Len(t, inWork, 1)
	assert.Equal(t, want, inWork[0].Category)

	updated, err := env.tasks.UpdateTask(ctx, alice, plain.ID, repository.TaskPatch{CategoryID: ptr(work.ID)})
	require.NoError(t, err)
	assert.Equal(t, want, updated.Category)

	updated, err = env.tasks.UpdateTask(ctx, alice, plain.ID, repository.TaskPatch{CategoryID: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.Category)
}
