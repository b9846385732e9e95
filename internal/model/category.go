package model

import "time"

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#6c757d"

// Category groups tasks by area (work, health, study, etc.).
type Category struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	UserID    string    `gorm:"size:36;uniqueIndex:idx_user_category_name" bson:"user_id" json:"user"`
	Name      string    `gorm:"uniqueIndex:idx_user_category_name" bson:"name" json:"name"`
	Color     string    `bson:"color" json:"color"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

func (c *Category) OwnerID() string { return c.UserID }
