package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"task-manager/internal/model"
	"task-manager/internal/repository"
)

type userCollection struct {
	store *Store
	coll  *mongo.Collection
}

func (c *userCollection) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	if user.ID == "" {
		user.ID = repository.NewID()
	}
	ts := now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = ts
	}
	user.UpdatedAt = ts
	_, err := c.coll.InsertOne(ctx, user)
	return translate("create user", err)
}

func (c *userCollection) FindByID(ctx context.Context, id string) (*model.User, error) {
	return c.findOne(ctx, "find user", bson.M{"_id": id})
}

func (c *userCollection) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return c.findOne(ctx, "find user by email", bson.M{"email": email})
}

func (c *userCollection) FindByResetTokenHash(ctx context.Context, hash string) (*model.User, error) {
	return c.findOne(ctx, "find user by reset token", bson.M{"reset_token_hash": hash})
}

func (c *userCollection) FindByTelegramChatID(ctx context.Context, chatID int64) (*model.User, error) {
	return c.findOne(ctx, "find user by chat", bson.M{"telegram_chat_id": chatID})
}

func (c *userCollection) findOne(ctx context.Context, op string, filter bson.M) (*model.User, error) {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	var user model.User
	if err := c.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translate(op, err)
	}
	return &user, nil
}

func (c *userCollection) ListTelegramLinked(ctx context.Context) ([]model.User, error) {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := c.coll.Find(ctx, bson.M{"telegram_chat_id": bson.M{"$ne": 0}}, opts)
	if err != nil {
		return nil, translate("list users", err)
	}
	var users []model.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, translate("list users", err)
	}
	return users, nil
}

func (c *userCollection) SetResetToken(ctx context.Context, id, hash string, expiry time.Time) error {
	return c.updateOne(ctx, "set reset token", id, bson.M{
		"$set": bson.M{"reset_token_hash": hash, "reset_token_expiry": expiry.UTC(), "updated_at": now()},
	})
}

func (c *userCollection) SetPassword(ctx context.Context, id, passwordHash string) error {
	return c.updateOne(ctx, "set password", id, bson.M{
		"$set":   bson.M{"password_hash": passwordHash, "updated_at": now()},
		"$unset": bson.M{"reset_token_hash": "", "reset_token_expiry": ""},
	})
}

func (c *userCollection) SetTelegramChatID(ctx context.Context, id string, chatID int64) error {
	return c.updateOne(ctx, "set telegram chat", id, bson.M{
		"$set": bson.M{"telegram_chat_id": chatID, "updated_at": now()},
	})
}

func (c *userCollection) updateOne(ctx context.Context, op, id string, update bson.M) error {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	res, err := c.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translate(op, err)
	}
	if res.MatchedCount == 0 {
		return notFound(op)
	}
	return nil
}

func (c *userCollection) ClearExpiredResetTokens(ctx context.Context, at time.Time) (int64, error) {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	res, err := c.coll.UpdateMany(ctx,
		bson.M{"reset_token_expiry": bson.M{"$lt": at.UTC()}},
		bson.M{"$unset": bson.M{"reset_token_hash": "", "reset_token_expiry": ""}},
	)
	if err != nil {
		return 0, translate("clear reset tokens", err)
	}
	return res.ModifiedCount, nil
}
