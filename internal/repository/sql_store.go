package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// SQLStore is the gorm-backed Store.
type SQLStore struct {
	db *gorm.DB
}

var _ Store = (*SQLStore)(nil)

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Users() UserStore          { return NewUserRepository(s.db) }
func (s *SQLStore) Categories() CategoryStore { return NewCategoryRepository(s.db) }
func (s *SQLStore) Tasks() TaskStore          { return NewTaskRepository(s.db) }
func (s *SQLStore) Comments() CommentStore    { return NewCommentRepository(s.db) }

func (s *SQLStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &SQLStore{db: tx})
	})
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm errors onto the package sentinels.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
