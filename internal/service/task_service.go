package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"task-manager/internal/guard"
	"task-manager/internal/model"
	"task-manager/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string
	Description string
	Status      model.TaskStatus
	Priority    model.TaskPriority
	DueDate     *time.Time
	CategoryID  string
}

// SearchFilter holds the optional task search criteria.
type SearchFilter struct {
	Title       string
	Description string
	Status      model.TaskStatus
	Priority    model.TaskPriority
	StartDate   *time.Time
	EndDate     *time.Time
}

// TaskDetail is a task with its category and comments loaded.
type TaskDetail struct {
	TaskView
	Comments []CommentView `json:"comments"`
}

// TaskService wraps task-related business logic.
type TaskService struct {
	store    repository.Store
	log      *logrus.Logger
	recorder Recorder
}

func NewTaskService(store repository.Store, log *logrus.Logger) *TaskService {
	return &TaskService{store: store, log: log, recorder: nopRecorder{}}
}

func (s *TaskService) WithRecorder(r Recorder) *TaskService {
	s.recorder = r
	return s
}

func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*TaskView, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrMissingTitle
	}

	status := input.Status
	if status == "" {
		status = model.StatusPending
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	priority := input.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return nil, ErrInvalidPriority
	}

	task := model.Task{
		UserID:      user.ID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      status,
		Priority:    priority,
	}
	if input.DueDate != nil {
		due := input.DueDate.UTC()
		task.DueDate = &due
	}
	var category *model.Category
	if categoryID := strings.TrimSpace(input.CategoryID); categoryID != "" {
		c, err := s.checkCategory(ctx, user.ID, categoryID)
		if err != nil {
			return nil, err
		}
		category = c
		task.CategoryID = &categoryID
	}

	if err := s.store.Tasks().Create(ctx, &task); err != nil {
		return nil, storeErr("create task", err, nil)
	}
	return &TaskView{Task: task, Category: categoryRef(category)}, nil
}

// ListTasks returns the caller's tasks, newest first, with categories resolved.
func (s *TaskService) ListTasks(ctx context.Context, user *model.User) ([]TaskView, error) {
	tasks, err := s.store.Tasks().Find(ctx, repository.TaskFilter{UserID: user.ID})
	if err != nil {
		return nil, storeErr("list tasks", err, nil)
	}
	return taskViews(ctx, s.store, user.ID, tasks)
}

// GetTask returns the task with its category and its comments, newest first.
func (s *TaskService) GetTask(ctx context.Context, user *model.User, id string) (*TaskDetail, error) {
	task, err := s.owned(ctx, user, id, guard.ActionRead, "Not authorized to access this task")
	if err != nil {
		return nil, err
	}

	view, err := taskView(ctx, s.store, task)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.Comments().ListByTask(ctx, task.ID)
	if err != nil {
		return nil, storeErr("list comments", err, nil)
	}
	views, err := commentViews(ctx, s.store, comments)
	if err != nil {
		return nil, err
	}
	return &TaskDetail{TaskView: *view, Comments: views}, nil
}

// UpdateTask applies a partial update. Only fields set in patch change.
func (s *TaskService) UpdateTask(ctx context.Context, user *model.User, id string, patch repository.TaskPatch) (*TaskView, error) {
	task, err := s.owned(ctx, user, id, guard.ActionUpdate, "Not authorized to update this task")
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, ErrMissingTitle
		}
		patch.Title = &title
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		patch.Description = &description
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if patch.DueDate != nil {
		due := patch.DueDate.UTC()
		patch.DueDate = &due
	}
	if patch.CategoryID != nil {
		categoryID := strings.TrimSpace(*patch.CategoryID)
		if categoryID == "" {
			patch.CategoryID = nil
			patch.ClearCategory = true
		} else {
			if _, err := s.checkCategory(ctx, task.UserID, categoryID); err != nil {
				return nil, err
			}
			patch.CategoryID = &categoryID
		}
	}

	updated, err := s.store.Tasks().Update(ctx, id, patch)
	if err != nil {
		return nil, storeErr("update task", err, ErrTaskNotFound)
	}
	return taskView(ctx, s.store, updated)
}

// DeleteTask removes the task together with all of its comments.
func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, id string) error {
	if _, err := s.owned(ctx, user, id, guard.ActionDelete, "Not authorized to delete this task"); err != nil {
		return err
	}

	var removed int64
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		n, err := tx.Comments().DeleteByTask(ctx, id)
		if err != nil {
			return err
		}
		removed = n
		return tx.Tasks().Delete(ctx, id)
	})
	if err != nil {
		return storeErr("delete task", err, ErrTaskNotFound)
	}

	s.recorder.RecordCascade("comment", removed)
	s.log.WithFields(logrus.Fields{
		"user_id":          user.ID,
		"task_id":          id,
		"comments_removed": removed,
	}).Info("task deleted")
	return nil
}

// SearchTasks filters the caller's tasks. Text filters are case-insensitive
// substrings, the due date range is inclusive on both ends.
func (s *TaskService) SearchTasks(ctx context.Context, user *model.User, f SearchFilter) ([]TaskView, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return nil, ErrInvalidPriority
	}
	filter := repository.TaskFilter{
		UserID:      user.ID,
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Status:      f.Status,
		Priority:    f.Priority,
		DueFrom:     f.StartDate,
		DueTo:       f.EndDate,
	}
	tasks, err := s.store.Tasks().Find(ctx, filter)
	if err != nil {
		return nil, storeErr("search tasks", err, nil)
	}
	return taskViews(ctx, s.store, user.ID, tasks)
}

func (s *TaskService) owned(ctx context.Context, user *model.User, id string, action guard.Action, denied string) (*model.Task, error) {
	task, err := s.store.Tasks().FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find task", err, ErrTaskNotFound)
	}
	if !guard.Authorize(user.ID, task, action).Allowed {
		return nil, forbidden(denied)
	}
	return task, nil
}

// checkCategory fails with ErrCategoryNotOwned unless ownerID owns the category.
func (s *TaskService) checkCategory(ctx context.Context, ownerID, categoryID string) (*model.Category, error) {
	category, err := s.store.Categories().FindByID(ctx, categoryID)
	if err != nil {
		return nil, storeErr("find category", err, ErrCategoryNotOwned)
	}
	if !guard.Authorize(ownerID, category, guard.ActionRead).Allowed {
		return nil, ErrCategoryNotOwned
	}
	return category, nil
}
