package model

import "time"

// User is an account that owns categories, tasks and comments.
type User struct {
	ID               string     `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Name             string     `bson:"name" json:"name"`
	Email            string     `gorm:"uniqueIndex" bson:"email" json:"email"`
	PasswordHash     string     `bson:"password_hash" json:"-"`
	ResetTokenHash   *string    `gorm:"index" bson:"reset_token_hash,omitempty" json:"-"`
	ResetTokenExpiry *time.Time `bson:"reset_token_expiry,omitempty" json:"-"`
	// TelegramChatID is unique among linked accounts; zero means unlinked.
	TelegramChatID   int64      `gorm:"uniqueIndex:idx_users_telegram_chat,where:telegram_chat_id <> 0" bson:"telegram_chat_id" json:"telegramChatId,omitempty"`
	CreatedAt        time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `bson:"updated_at" json:"updatedAt"`
}
