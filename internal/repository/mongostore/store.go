// Package mongostore implements the entity store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"task-manager/internal/repository"
)

const (
	usersCollection      = "users"
	categoriesCollection = "categories"
	tasksCollection      = "tasks"
	commentsCollection   = "comments"
)

// Options configures a Store.
type Options struct {
	URI      string
	Database string
	// Timeout bounds every single store call.
	Timeout time.Duration
	// Transactions wraps WithinTx in a multi-document transaction.
	// Requires a replica set.
	Transactions bool
}

// Store is the MongoDB-backed repository.Store.
type Store struct {
	client       *mongo.Client
	db           *mongo.Database
	timeout      time.Duration
	transactions bool
}

var _ repository.Store = (*Store)(nil)

// Connect dials MongoDB, verifies the connection and ensures indexes.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetServerSelectionTimeout(opts.Timeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	s := &Store{
		client:       client,
		db:           client.Database(opts.Database),
		timeout:      opts.Timeout,
		transactions: opts.Transactions,
	}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "reset_token_hash", Value: 1}}, Options: options.Index().SetSparse(true)},
			{
				Keys: bson.D{{Key: "telegram_chat_id", Value: 1}},
				Options: options.Index().
					SetName("telegram_chat_id_linked").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"telegram_chat_id": bson.M{"$gt": 0}}),
			},
		},
		categoriesCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		tasksCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "category_id", Value: 1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "task_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Users() repository.UserStore {
	return &userCollection{store: s, coll: s.db.Collection(usersCollection)}
}

func (s *Store) Categories() repository.CategoryStore {
	return &categoryCollection{store: s, coll: s.db.Collection(categoriesCollection)}
}

func (s *Store) Tasks() repository.TaskStore {
	return &taskCollection{store: s, coll: s.db.Collection(tasksCollection)}
}

func (s *Store) Comments() repository.CommentStore {
	return &commentCollection{store: s, coll: s.db.Collection(commentsCollection)}
}

// WithinTx runs fn inside a session transaction when enabled. Without
// transactions the writes in fn are applied one by one.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if !s.transactions {
		return fn(ctx, s)
	}
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes the whole database. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
}
