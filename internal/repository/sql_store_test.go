package repository_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager/internal/model"
	"task-manager/internal/repository"
	"task-manager/internal/repository/storetest"
)

func newSQLStore(t *testing.T) repository.Store {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := repository.NewDB(":memory:", log)
	require.NoError(t, err)
	store := repository.NewSQLStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLStoreContract(t *testing.T) {
	storetest.Run(t, newSQLStore)
}

func TestSQLStoreWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newSQLStore(t)

	task := &model.Task{UserID: "u1", Title: "keep me", Status: model.StatusPending, Priority: model.PriorityLow}
	require.NoError(t, store.Tasks().Create(ctx, task))
	require.NoError(t, store.Comments().Create(ctx, &model.Comment{Text: "note", UserID: "u1", TaskID: task.ID}))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Comments().DeleteByTask(ctx, task.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	comments, err := store.Comments().ListByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestSQLStoreWithinTxCommits(t *testing.T) {
	ctx := context.Background()
	store := newSQLStore(t)

	task := &model.Task{UserID: "u1", Title: "gone", Status: model.StatusPending, Priority: model.PriorityLow}
	require.NoError(t, store.Tasks().Create(ctx, task))

	err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return tx.Tasks().Delete(ctx, task.ID)
	})
	require.NoError(t, err)

	_, err = store.Tasks().FindByID(ctx, task.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTaskPatchApply(t *testing.T) {
	title := "new"
	task := &model.Task{Title: "old", Description: "keep"}

	repository.TaskPatch{Title: &title}.Apply(task)

	assert.Equal(t, "new", task.Title)
	assert.Equal(t, "keep", task.Description)
}

func TestNewDBCreatesParentDir(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	dir := t.TempDir()

	db, err := repository.NewDB(dir+"/nested/app.db", log)
	require.NoError(t, err)
	store := repository.NewSQLStore(db)
	defer store.Close()

	require.NoError(t, store.Ping(context.Background()))
	assert.DirExists(t, dir+"/nested")
}
