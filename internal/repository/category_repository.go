package repository

import (
	"context"

	"gorm.io/gorm"

	"task-manager/internal/model"
)

// CategoryRepository manages task categories.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *model.Category) error {
	ensureID(&category.ID)
	return translate("create category", r.db.WithContext(ctx).Create(category).Error)
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, translate("find category", err)
	}
	return &category, nil
}

func (r *CategoryRepository) FindByName(ctx context.Context, userID, name string) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).Where("user_id = ? AND name = ?", userID, name).First(&category).Error
	if err != nil {
		return nil, translate("find category by name", err)
	}
	return &category, nil
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID string) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, translate("list categories", err)
	}
	return categories, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Category{})
	if res.Error != nil {
		return translate("delete category", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("delete category", gorm.ErrRecordNotFound)
	}
	return nil
}
