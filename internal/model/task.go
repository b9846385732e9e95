package model

import "time"

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a single to-do item owned by one user.
type Task struct {
	ID          string       `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	UserID      string       `gorm:"size:36;index" bson:"user_id" json:"user"`
	CategoryID  *string      `gorm:"size:36;index" bson:"category_id,omitempty" json:"category"`
	Title       string       `bson:"title" json:"title"`
	Description string       `bson:"description" json:"description"`
	Status      TaskStatus   `gorm:"size:16;index" bson:"status" json:"status"`
	Priority    TaskPriority `gorm:"size:16;index" bson:"priority" json:"priority"`
	DueDate     *time.Time   `gorm:"index" bson:"due_date,omitempty" json:"dueDate"`
	// CommentIDs lists comments in the order they were added.
	CommentIDs []string  `gorm:"serializer:json" bson:"comment_ids" json:"comments"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

func (t *Task) OwnerID() string { return t.UserID }

// HasComment reports whether id is in the task's comment list.
func (t *Task) HasComment(id string) bool {
	for _, c := range t.CommentIDs {
		if c == id {
			return true
		}
	}
	return false
}
