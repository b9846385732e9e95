package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"task-manager/internal/model"
)

var (
	// ErrNotFound is returned when a lookup by id or key matches nothing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

// TaskFilter narrows a task listing. Zero fields are ignored.
// Title and Description match as case-insensitive substrings, DueFrom and
// DueTo are inclusive bounds.
type TaskFilter struct {
	UserID      string
	CategoryID  string
	Title       string
	Description string
	Status      model.TaskStatus
	Priority    model.TaskPriority
	DueFrom     *time.Time
	DueTo       *time.Time
}

// TaskPatch lists the task fields to change. Nil pointers are left alone.
type TaskPatch struct {
	Title         *string
	Description   *string
	Status        *model.TaskStatus
	Priority      *model.TaskPriority
	DueDate       *time.Time
	ClearDueDate  bool
	CategoryID    *string
	ClearCategory bool
}

// Apply copies the patch onto task.
func (p TaskPatch) Apply(task *model.Task) {
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Description != nil {
		task.Description = *p.Description
	}
	if p.Status != nil {
		task.Status = *p.Status
	}
	if p.Priority != nil {
		task.Priority = *p.Priority
	}
	switch {
	case p.ClearDueDate:
		task.DueDate = nil
	case p.DueDate != nil:
		due := *p.DueDate
		task.DueDate = &due
	}
	switch {
	case p.ClearCategory:
		task.CategoryID = nil
	case p.CategoryID != nil:
		id := *p.CategoryID
		task.CategoryID = &id
	}
}

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByResetTokenHash(ctx context.Context, hash string) (*model.User, error)
	FindByTelegramChatID(ctx context.Context, chatID int64) (*model.User, error)
	ListTelegramLinked(ctx context.Context) ([]model.User, error)
	SetResetToken(ctx context.Context, id, hash string, expiry time.Time) error
	// SetPassword replaces the password hash and clears any reset token.
	SetPassword(ctx context.Context, id, passwordHash string) error
	SetTelegramChatID(ctx context.Context, id string, chatID int64) error
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type CategoryStore interface {
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id string) (*model.Category, error)
	FindByName(ctx context.Context, userID, name string) (*model.Category, error)
	ListByUser(ctx context.Context, userID string) ([]model.Category, error)
	Delete(ctx context.Context, id string) error
}

type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, id string) (*model.Task, error)
	// Find returns matching tasks, newest first.
	Find(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, id string, patch TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, id string) error
	// ClearCategory unsets the category on every task that references it.
	ClearCategory(ctx context.Context, categoryID string) (int64, error)
	AppendComment(ctx context.Context, taskID, commentID string) error
	RemoveComment(ctx context.Context, taskID, commentID string) error
}

type CommentStore interface {
	Create(ctx context.Context, comment *model.Comment) error
	FindByID(ctx context.Context, id string) (*model.Comment, error)
	// ListByTask returns the task's comments, newest first.
	ListByTask(ctx context.Context, taskID string) ([]model.Comment, error)
	UpdateText(ctx context.Context, id, text string) (*model.Comment, error)
	Delete(ctx context.Context, id string) error
	DeleteByTask(ctx context.Context, taskID string) (int64, error)
}

// Store is the entity store handed to the services. Implementations are
// constructed explicitly and closed by their owner.
type Store interface {
	Users() UserStore
	Categories() CategoryStore
	Tasks() TaskStore
	Comments() CommentStore
	// WithinTx runs fn against a store whose writes commit or roll back together.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Ping(ctx context.Context) error
	Close() error
}

// NewID returns a fresh entity id. Ids are UUIDv7, so ids created later in
// the process sort after earlier ones; stores use that to break created_at ties.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func ensureID(id *string) {
	if *id == "" {
		*id = NewID()
	}
}
