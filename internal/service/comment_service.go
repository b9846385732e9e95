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

// CommentService manages comments attached to tasks.
type CommentService struct {
	store repository.Store
	log   *logrus.Logger
	now   func() time.Time
}

func NewCommentService(store repository.Store, log *logrus.Logger) *CommentService {
	return &CommentService{store: store, log: log, now: time.Now}
}

// WithClock replaces the time source used for comment timestamps.
func (s *CommentService) WithClock(now func() time.Time) *CommentService {
	s.now = now
	return s
}

// AddComment appends a comment to a task owned by the caller.
func (s *CommentService) AddComment(ctx context.Context, user *model.User, taskID, text string) (*CommentView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMissingText
	}
	task, err := s.task(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !guard.Authorize(user.ID, task, guard.ActionComment).Allowed {
		return nil, forbidden("Not authorized to comment on this task")
	}

	comment := &model.Comment{
		Text:      text,
		UserID:    user.ID,
		TaskID:    task.ID,
		CreatedAt: s.now().UTC(),
	}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Comments().Create(ctx, comment); err != nil {
			return err
		}
		return tx.Tasks().AppendComment(ctx, task.ID, comment.ID)
	})
	if err != nil {
		return nil, storeErr("add comment", err, ErrTaskNotFound)
	}
	return &CommentView{Comment: *comment, User: authorRef(user)}, nil
}

// GetComments lists a task's comments, newest first, with authors resolved.
func (s *CommentService) GetComments(ctx context.Context, user *model.User, taskID string) ([]CommentView, error) {
	task, err := s.task(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !guard.Authorize(user.ID, task, guard.ActionRead).Allowed {
		return nil, forbidden("Not authorized to view comments for this task")
	}
	comments, err := s.store.Comments().ListByTask(ctx, task.ID)
	if err != nil {
		return nil, storeErr("list comments", err, nil)
	}
	return commentViews(ctx, s.store, comments)
}

// UpdateComment changes the text of a comment. Only its author may do so.
func (s *CommentService) UpdateComment(ctx context.Context, user *model.User, taskID, commentID, text string) (*CommentView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMissingText
	}
	task, comment, err := s.load(ctx, taskID, commentID)
	if err != nil {
		return nil, err
	}
	if !guard.AuthorizeComment(user.ID, comment, task, guard.ActionUpdate).Allowed {
		return nil, forbidden("Not authorized to update this comment")
	}
	if comment.TaskID != task.ID {
		return nil, ErrCommentMismatch
	}

	updated, err := s.store.Comments().UpdateText(ctx, comment.ID, text)
	if err != nil {
		return nil, storeErr("update comment", err, ErrCommentNotFound)
	}
	return &CommentView{Comment: *updated, User: authorRef(user)}, nil
}

// DeleteComment removes a comment. The author and the task owner may do so.
func (s *CommentService) DeleteComment(ctx context.Context, user *model.User, taskID, commentID string) error {
	task, comment, err := s.load(ctx, taskID, commentID)
	if err != nil {
		return err
	}
	if !guard.AuthorizeComment(user.ID, comment, task, guard.ActionDelete).Allowed {
		return forbidden("Not authorized to delete this comment")
	}
	if comment.TaskID != task.ID {
		return ErrCommentMismatch
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Tasks().RemoveComment(ctx, task.ID, comment.ID); err != nil {
			return err
		}
		return tx.Comments().Delete(ctx, comment.ID)
	})
	if err != nil {
		return storeErr("delete comment", err, ErrCommentNotFound)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"task_id":    task.ID,
		"comment_id": comment.ID,
	}).Debug("comment deleted")
	return nil
}

func (s *CommentService) task(ctx context.Context, taskID string) (*model.Task, error) {
	task, err := s.store.Tasks().FindByID(ctx, taskID)
	if err != nil {
		return nil, storeErr("find task", err, ErrTaskNotFound)
	}
	return task, nil
}

func (s *CommentService) load(ctx context.Context, taskID, commentID string) (*model.Task, *model.Comment, error) {
	task, err := s.task(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	comment, err := s.store.Comments().FindByID(ctx, commentID)
	if err != nil {
		return nil, nil, storeErr("find comment", err, ErrCommentNotFound)
	}
	return task, comment, nil
}
