package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"task-manager/internal/model"
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	ensureID(&task.ID)
	if task.CommentIDs == nil {
		task.CommentIDs = []string{}
	}
	return translate("create task", r.db.WithContext(ctx).Create(task).Error)
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, translate("find task", err)
	}
	return &task, nil
}

func (r *TaskRepository) Find(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Model(&model.Task{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Title != "" {
		q = q.Where(`unicode_lower(title) LIKE ? ESCAPE '\'`, likePattern(filter.Title))
	}
	if filter.Description != "" {
		q = q.Where(`unicode_lower(description) LIKE ? ESCAPE '\'`, likePattern(filter.Description))
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	if filter.DueFrom != nil {
		q = q.Where("due_date >= ?", filter.DueFrom.UTC())
	}
	if filter.DueTo != nil {
		q = q.Where("due_date <= ?", filter.DueTo.UTC())
	}

	var tasks []model.Task
	if err := q.Order("created_at DESC, id DESC").Find(&tasks).Error; err != nil {
		return nil, translate("find tasks", err)
	}
	return tasks, nil
}

// likePattern builds a lower-cased substring pattern with LIKE wildcards escaped.
func likePattern(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}

func (r *TaskRepository) Update(ctx context.Context, id string, patch TaskPatch) (*model.Task, error) {
	task, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(task)
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return nil, translate("update task", err)
	}
	return task, nil
}

// Delete removes a single task. Comments are the caller's concern.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Task{})
	if res.Error != nil {
		return translate("delete task", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("delete task", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *TaskRepository) ClearCategory(ctx context.Context, categoryID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("category_id = ?", categoryID).
		Update("category_id", nil)
	if res.Error != nil {
		return 0, translate("clear task category", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *TaskRepository) AppendComment(ctx context.Context, taskID, commentID string) error {
	task, err := r.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.HasComment(commentID) {
		return nil
	}
	task.CommentIDs = append(task.CommentIDs, commentID)
	return translate("append comment", r.db.WithContext(ctx).Save(task).Error)
}

func (r *TaskRepository) RemoveComment(ctx context.Context, taskID, commentID string) error {
	task, err := r.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	kept := make([]string, 0, len(task.CommentIDs))
	for _, id := range task.CommentIDs {
		if id != commentID {
			kept = append(kept, id)
		}
	}
	task.CommentIDs = kept
	return translate("remove comment", r.db.WithContext(ctx).Save(task).Error)
}
