package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"task-manager/internal/guard"
	"task-manager/internal/model"
	"task-manager/internal/repository"
)

// CategoryInput represents data required to create a category.
type CategoryInput struct {
	Name  string
	Color string
}

// CategoryService provides category operations scoped to their owner.
type CategoryService struct {
	store    repository.Store
	log      *logrus.Logger
	recorder Recorder
}

func NewCategoryService(store repository.Store, log *logrus.Logger) *CategoryService {
	return &CategoryService{store: store, log: log, recorder: nopRecorder{}}
}

func (s *CategoryService) WithRecorder(r Recorder) *CategoryService {
	s.recorder = r
	return s
}

func (s *CategoryService) Create(ctx context.Context, user *model.User, input CategoryInput) (*model.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrMissingName
	}

	categories := s.store.Categories()
	_, err := categories.FindByName(ctx, user.ID, name)
	switch {
	case err == nil:
		return nil, ErrDuplicateName
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storeErr("find category", err, nil)
	}

	color := strings.TrimSpace(input.Color)
	if color == "" {
		color = model.DefaultCategoryColor
	}

	category := &model.Category{UserID: user.ID, Name: name, Color: color}
	if err := categories.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateName
		}
		return nil, storeErr("create category", err, nil)
	}
	return category, nil
}

func (s *CategoryService) List(ctx context.Context, user *model.User) ([]model.Category, error) {
	categories, err := s.store.Categories().ListByUser(ctx, user.ID)
	if err != nil {
		return nil, storeErr("list categories", err, nil)
	}
	return categories, nil
}

// Delete removes a category and unsets it on every task that used it.
func (s *CategoryService) Delete(ctx context.Context, user *model.User, id string) error {
	if _, err := s.owned(ctx, user, id, guard.ActionDelete, "Not authorized to delete this category"); err != nil {
		return err
	}

	var cleared int64
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		n, err := tx.Tasks().ClearCategory(ctx, id)
		if err != nil {
			return err
		}
		cleared = n
		return tx.Categories().Delete(ctx, id)
	})
	if err != nil {
		return storeErr("delete category", err, ErrCategoryNotFound)
	}

	s.recorder.RecordCascade("task_category", cleared)
	s.log.WithFields(logrus.Fields{
		"user_id":       user.ID,
		"category_id":   id,
		"tasks_cleared": cleared,
	}).Info("category deleted")
	return nil
}

// TasksByCategory lists the caller's tasks in one of their categories.
func (s *CategoryService) TasksByCategory(ctx context.Context, user *model.User, id string) ([]TaskView, error) {
	category, err := s.owned(ctx, user, id, guard.ActionRead, "Not authorized to access this category")
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.Tasks().Find(ctx, repository.TaskFilter{UserID: user.ID, CategoryID: id})
	if err != nil {
		return nil, storeErr("find tasks", err, nil)
	}
	ref := categoryRef(category)
	views := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, TaskView{Task: task, Category: ref})
	}
	return views, nil
}

func (s *CategoryService) owned(ctx context.Context, user *model.User, id string, action guard.Action, denied string) (*model.Category, error) {
	category, err := s.store.Categories().FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find category", err, ErrCategoryNotFound)
	}
	if !guard.Authorize(user.ID, category, action).Allowed {
		return nil, forbidden(denied)
	}
	return category, nil
}
