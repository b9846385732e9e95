package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"task-manager/internal/model"
	"task-manager/internal/repository"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type countingRecorder struct {
	cascades map[string]int64
}

func (r *countingRecorder) RecordCascade(entity string, n int64) {
	if r.cascades == nil {
		r.cascades = make(map[string]int64)
	}
	r.cascades[entity] += n
}

type testEnv struct {
	store      repository.Store
	clock      *fakeClock
	recorder   *countingRecorder
	auth       *AuthService
	categories *CategoryService
	tasks      *TaskService
	comments   *CommentService
	reminders  *ReminderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := repository.NewDB(":memory:", log)
	require.NoError(t, err)
	store := repository.NewSQLStore(db)
	t.Cleanup(func() { _ = store.Close() })

	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	rec := &countingRecorder{}
	cfg := AuthConfig{
		Secret:     []byte("test-secret"),
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	}

	return &testEnv{
		store:      store,
		clock:      clock,
		recorder:   rec,
		auth:       NewAuthService(store, cfg, log).WithClock(clock.Now),
		categories: NewCategoryService(store, log).WithRecorder(rec),
		tasks:      NewTaskService(store, log).WithRecorder(rec),
		comments:   NewCommentService(store, log).WithClock(clock.Now),
		reminders:  NewReminderService(store),
	}
}

func (e *testEnv) register(t *testing.T, name string) *model.User {
	t.Helper()
	session, err := e.auth.Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    name + "@example.com",
		Password: "secret-" + name,
	})
	require.NoError(t, err)
	return session.User
}

func (e *testEnv) task(t *testing.T, owner *model.User, title string) *model.Task {
	t.Helper()
	view, err := e.tasks.CreateTask(context.Background(), owner, TaskInput{Title: title})
	require.NoError(t, err)
	return &view.Task
}

func ptr[T any](v T) *T { return &v }
