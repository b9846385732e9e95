// Package storetest holds behaviour checks shared by every repository.Store
// implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager/internal/model"
	"task-manager/internal/repository"
)

// Run exercises store against the repository contract. newStore must return
// an empty store for every call.
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Categories", func(t *testing.T) { testCategories(t, newStore(t)) })
	t.Run("TaskFilters", func(t *testing.T) { testTaskFilters(t, newStore(t)) })
	t.Run("CreatedAtTies", func(t *testing.T) { testCreatedAtTies(t, newStore(t)) })
	t.Run("TaskPatch", func(t *testing.T) { testTaskPatch(t, newStore(t)) })
	t.Run("ClearCategory", func(t *testing.T) { testClearCategory(t, newStore(t)) })
	t.Run("Comments", func(t *testing.T) { testComments(t, newStore(t)) })
}

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testUsers(t *testing.T, s repository.Store) {
	ctx := context.Background()
	users := s.Users()

	alice := &model.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "h1"}
	require.NoError(t, users.Create(ctx, alice))
	require.NotEmpty(t, alice.ID)

	err := users.Create(ctx, &model.User{Name: "Other", Email: "alice@example.com", PasswordHash: "h2"})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := users.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Nil(t, got.ResetTokenHash)

	_, err = users.FindByID(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)

	expiry := base.Add(10 * time.Minute)
	require.NoError(t, users.SetResetToken(ctx, alice.ID, "hash-1", expiry))
	got, err = users.FindByResetTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	require.NotNil(t, got.ResetTokenExpiry)
	assert.True(t, got.ResetTokenExpiry.Equal(expiry))

	require.NoError(t, users.SetPassword(ctx, alice.ID, "h-new"))
	_, err = users.FindByResetTokenHash(ctx, "hash-1")
	require.ErrorIs(t, err, repository.ErrNotFound)
	got, err = users.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "h-new", got.PasswordHash)
	assert.Nil(t, got.ResetTokenExpiry)

	require.ErrorIs(t, users.SetPassword(ctx, "missing", "x"), repository.ErrNotFound)

	require.NoError(t, users.SetResetToken(ctx, alice.ID, "hash-2", base))
	cleared, err := users.ClearExpiredResetTokens(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, cleared)
	_, err = users.FindByResetTokenHash(ctx, "hash-2")
	require.ErrorIs(t, err, repository.ErrNotFound)

	linked, err := users.ListTelegramLinked(ctx)
	require.NoError(t, err)
	assert.Empty(t, linked)

	require.NoError(t, users.SetTelegramChatID(ctx, alice.ID, 4242))
	linked, err = users.ListTelegramLinked(ctx)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	got, err = users.FindByTelegramChatID(ctx, 4242)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	bob := &model.User{Name: "Bob", Email: "bob@example.com", PasswordHash: "h3"}
	require.NoError(t, users.Create(ctx, bob))
	require.ErrorIs(t, users.SetTelegramChatID(ctx, bob.ID, 4242), repository.ErrDuplicate)
	require.NoError(t, users.SetTelegramChatID(ctx, bob.ID, 0))
	require.NoError(t, users.SetTelegramChatID(ctx, alice.ID, 0))
	require.NoError(t, users.SetTelegramChatID(ctx, bob.ID, 4242))
}

func testCategories(t *testing.T, s repository.Store) {
	ctx := context.Background()
	cats := s.Categories()

	work := &model.Category{UserID: "u1", Name: "Work", Color: model.DefaultCategoryColor}
	require.NoError(t, cats.Create(ctx, work))
	require.NoError(t, cats.Create(ctx, &model.Category{UserID: "u1", Name: "Home", Color: "#fff"}))
	require.NoError(t, cats.Create(ctx, &model.Category{UserID: "u2", Name: "Work", Color: "#000"}))

	err := cats.Create(ctx, &model.Category{UserID: "u1", Name: "Work", Color: "#111"})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	list, err := cats.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Home", list[0].Name)
	assert.Equal(t, "Work", list[1].Name)

	got, err := cats.FindByName(ctx, "u1", "Work")
	require.NoError(t, err)
	assert.Equal(t, work.ID, got.ID)

	require.NoError(t, cats.Delete(ctx, work.ID))
	require.ErrorIs(t, cats.Delete(ctx, work.ID), repository.ErrNotFound)
	_, err = cats.FindByID(ctx, work.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func newTask(userID, title string, created time.Time) *model.Task {
	return &model.Task{
		UserID:    userID,
		Title:     title,
		Status:    model.StatusPending,
		Priority:  model.PriorityMedium,
		CreatedAt: created,
	}
}

func testTaskFilters(t *testing.T, s repository.Store) {
	ctx := context.Background()
	tasks := s.Tasks()

	d1 := base.AddDate(0, 0, 1)
	d5 := base.AddDate(0, 0, 5)

	a := newTask("u1", "Foo bar", base)
	a.DueDate = &d1
	b := newTask("u1", "xfooy", base.Add(time.Minute))
	b.Priority = model.PriorityHigh
	b.Description = "50% done"
	c := newTask("u1", "fo", base.Add(2*time.Minute))
	c.Status = model.StatusCompleted
	c.DueDate = &d5
	other := newTask("u2", "foo for someone else", base.Add(3*time.Minute))
	for _, task := range []*model.Task{a, b, c, other} {
		require.NoError(t, tasks.Create(ctx, task))
	}

	all, err := tasks.Find(ctx, repository.TaskFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, ids(all))

	found, err := tasks.Find(ctx, repository.TaskFilter{UserID: "u1", Title: "FOO"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids(found))

	found, err = tasks.Find(ctx, repository.TaskFilter{UserID: "u1", Description: "50%"})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(found))

	found, err = tasks.Find(ctx, repository.TaskFilter{UserID: "u1", Title: "o_"})
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = tasks.Find(ctx, repository.TaskFilter{UserID: "u1", Status: model.StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, ids(found))

	found, err = tasks.Find(ctx, repository.TaskFilter{UserID: "u1", Priority: model.PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(found))

	found, err = tasks.Find(ctx, repository.TaskFilter{UserID: "u1", DueFrom: &d1, DueTo: &d5})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, c.ID}, ids(found))

	found, err = tasks.Find(ctx, repository.TaskFilter{UserID: "u1", DueFrom: &d5})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, ids(found))

	found, err = tasks.Find(ctx, repository.TaskFilter{UserID: "u1", DueTo: &d1})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, ids(found))

	ecole := newTask("u3", "École project", base)
	ecole.Description = "ÜBER wichtig"
	require.NoError(t, tasks.Create(ctx, ecole))
	for _, filter := range []repository.TaskFilter{
		{UserID: "u3", Title: "école"},
		{UserID: "u3", Title: "ÉCOLE"},
		{UserID: "u3", Description: "über"},
	} {
		found, err = tasks.Find(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, []string{ecole.ID}, ids(found), "%+v", filter)
	}
}

func testCreatedAtTies(t *testing.T, s repository.Store) {
	ctx := context.Background()

	var want []string
	for _, text := range []string{"one", "two", "three", "four"} {
		c := &model.Comment{Text: text, UserID: "u1", TaskID: "t-ties", CreatedAt: base}
		require.NoError(t, s.Comments().Create(ctx, c))
		want = append([]string{c.ID}, want...)
	}
	list, err := s.Comments().ListByTask(ctx, "t-ties")
	require.NoError(t, err)
	got := make([]string, 0, len(list))
	for _, c := range list {
		got = append(got, c.ID)
	}
	assert.Equal(t, want, got)

	var wantTasks []string
	for _, title := range []string{"a", "b", "c"} {
		task := newTask("u-ties", title, base)
		require.NoError(t, s.Tasks().Create(ctx, task))
		wantTasks = append([]string{task.ID}, wantTasks...)
	}
	all, err := s.Tasks().Find(ctx, repository.TaskFilter{UserID: "u-ties"})
	require.NoError(t, err)
	assert.Equal(t, wantTasks, ids(all))
}

func testTaskPatch(t *testing.T, s repository.Store) {
	ctx := context.Background()
	tasks := s.Tasks()

	due := base.AddDate(0, 0, 3)
	cat := "cat-1"
	task := newTask("u1", "Write spec", base)
	task.Description = "first draft"
	task.DueDate = &due
	task.CategoryID = &cat
	require.NoError(t, tasks.Create(ctx, task))

	status := model.StatusInProgress
	updated, err := tasks.Update(ctx, task.ID, repository.TaskPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, updated.Status)
	assert.Equal(t, "Write spec", updated.Title)
	assert.Equal(t, "first draft", updated.Description)
	require.NotNil(t, updated.DueDate)
	require.NotNil(t, updated.CategoryID)

	updated, err = tasks.Update(ctx, task.ID, repository.TaskPatch{ClearDueDate: true, ClearCategory: true})
	require.NoError(t, err)
	assert.Nil(t, updated.DueDate)
	assert.Nil(t, updated.CategoryID)

	reloaded, err := tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.DueDate)
	assert.Equal(t, model.StatusInProgress, reloaded.Status)

	_, err = tasks.Update(ctx, "missing", repository.TaskPatch{Status: &status})
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, tasks.AppendComment(ctx, task.ID, "c1"))
	require.NoError(t, tasks.AppendComment(ctx, task.ID, "c2"))
	require.NoError(t, tasks.AppendComment(ctx, task.ID, "c1"))
	reloaded, err = tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, reloaded.CommentIDs)

	require.NoError(t, tasks.RemoveComment(ctx, task.ID, "c1"))
	reloaded, err = tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c2"}, reloaded.CommentIDs)

	require.ErrorIs(t, tasks.AppendComment(ctx, "missing", "c3"), repository.ErrNotFound)

	require.NoError(t, tasks.Delete(ctx, task.ID))
	require.ErrorIs(t, tasks.Delete(ctx, task.ID), repository.ErrNotFound)
}

func testClearCategory(t *testing.T, s repository.Store) {
	ctx := context.Background()
	tasks := s.Tasks()

	cat := "cat-1"
	keep := "cat-2"
	a := newTask("u1", "a", base)
	a.CategoryID = &cat
	b := newTask("u1", "b", base.Add(time.Second))
	b.CategoryID = &cat
	c := newTask("u1", "c", base.Add(2*time.Second))
	c.CategoryID = &keep
	for _, task := range []*model.Task{a, b, c} {
		require.NoError(t, tasks.Create(ctx, task))
	}

	n, err := tasks.ClearCategory(ctx, cat)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	left, err := tasks.Find(ctx, repository.TaskFilter{CategoryID: cat})
	require.NoError(t, err)
	assert.Empty(t, left)

	all, err := tasks.Find(ctx, repository.TaskFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, task := range all {
		if task.ID == c.ID {
			require.NotNil(t, task.CategoryID)
			assert.Equal(t, keep, *task.CategoryID)
			continue
		}
		assert.Nil(t, task.CategoryID)
	}
}

func testComments(t *testing.T, s repository.Store) {
	ctx := context.Background()
	comments := s.Comments()

	first := &model.Comment{Text: "draft v1", UserID: "u1", TaskID: "t1", CreatedAt: base}
	second := &model.Comment{Text: "draft v2", UserID: "u1", TaskID: "t1", CreatedAt: base.Add(time.Second)}
	elsewhere := &model.Comment{Text: "other", UserID: "u1", TaskID: "t2", CreatedAt: base}
	for _, c := range []*model.Comment{first, second, elsewhere} {
		require.NoError(t, comments.Create(ctx, c))
	}

	list, err := comments.ListByTask(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	updated, err := comments.UpdateText(ctx, first.ID, "draft v1.1")
	require.NoError(t, err)
	assert.Equal(t, "draft v1.1", updated.Text)
	assert.Equal(t, "t1", updated.TaskID)

	_, err = comments.UpdateText(ctx, "missing", "x")
	require.ErrorIs(t, err, repository.ErrNotFound)

	n, err := comments.DeleteByTask(ctx, "t1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, comments.Delete(ctx, elsewhere.ID))
	require.ErrorIs(t, comments.Delete(ctx, elsewhere.ID), repository.ErrNotFound)
}

func ids(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	return out
}
