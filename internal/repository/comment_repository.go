package repository

import (
	"context"

	"gorm.io/gorm"

	"task-manager/internal/model"
)

// CommentRepository handles CRUD for task comments.
type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	ensureID(&comment.ID)
	return translate("create comment", r.db.WithContext(ctx).Create(comment).Error)
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	var comment model.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, translate("find comment", err)
	}
	return &comment, nil
}

func (r *CommentRepository) ListByTask(ctx context.Context, taskID string) ([]model.Comment, error) {
	var comments []model.Comment
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).
		Order("created_at DESC, id DESC").
		Find(&comments).Error; err != nil {
		return nil, translate("list comments", err)
	}
	return comments, nil
}

func (r *CommentRepository) UpdateText(ctx context.Context, id, text string) (*model.Comment, error) {
	comment, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comment.Text = text
	if err := r.db.WithContext(ctx).Save(comment).Error; err != nil {
		return nil, translate("update comment", err)
	}
	return comment, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Comment{})
	if res.Error != nil {
		return translate("delete comment", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("delete comment", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *CommentRepository) DeleteByTask(ctx context.Context, taskID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("task_id = ?", taskID).Delete(&model.Comment{})
	if res.Error != nil {
		return 0, translate("delete task comments", res.Error)
	}
	return res.RowsAffected, nil
}
