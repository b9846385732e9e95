package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"task-manager/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ensureID(&user.ID)
	return translate("create user", r.db.WithContext(ctx).Create(user).Error)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.first(ctx, "find user", "id = ?", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "find user by email", "email = ?", email)
}

func (r *UserRepository) FindByResetTokenHash(ctx context.Context, hash string) (*model.User, error) {
	return r.first(ctx, "find user by reset token", "reset_token_hash = ?", hash)
}

func (r *UserRepository) FindByTelegramChatID(ctx context.Context, chatID int64) (*model.User, error) {
	return r.first(ctx, "find user by chat", "telegram_chat_id = ?", chatID)
}

func (r *UserRepository) first(ctx context.Context, op, query string, arg interface{}) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, translate(op, err)
	}
	return &user, nil
}

func (r *UserRepository) ListTelegramLinked(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("telegram_chat_id <> 0").Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, translate("list users", err)
	}
	return users, nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, id, hash string, expiry time.Time) error {
	return r.update(ctx, "set reset token", id, map[string]interface{}{
		"reset_token_hash":   hash,
		"reset_token_expiry": expiry.UTC(),
	})
}

func (r *UserRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	return r.update(ctx, "set password", id, map[string]interface{}{
		"password_hash":      passwordHash,
		"reset_token_hash":   nil,
		"reset_token_expiry": nil,
	})
}

func (r *UserRepository) SetTelegramChatID(ctx context.Context, id string, chatID int64) error {
	return r.update(ctx, "set telegram chat", id, map[string]interface{}{
		"telegram_chat_id": chatID,
	})
}

func (r *UserRepository) update(ctx context.Context, op, id string, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return translate(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return translate(op, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *UserRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("reset_token_expiry IS NOT NULL AND reset_token_expiry < ?", now.UTC()).
		Updates(map[string]interface{}{
			"reset_token_hash":   nil,
			"reset_token_expiry": nil,
		})
	if res.Error != nil {
		return 0, translate("clear reset tokens", res.Error)
	}
	return res.RowsAffected, nil
}
