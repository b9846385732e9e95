package model

import "time"

// Comment is a note left on a task. UserID is the author.
type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Text      string    `bson:"text" json:"text"`
	UserID    string    `gorm:"size:36;index" bson:"user_id" json:"user"`
	TaskID    string    `gorm:"size:36;index" bson:"task_id" json:"task"`
	CreatedAt time.Time `gorm:"index" bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

func (c *Comment) OwnerID() string { return c.UserID }
