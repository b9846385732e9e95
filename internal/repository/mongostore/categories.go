package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"task-manager/internal/model"
	"task-manager/internal/repository"
)

type categoryCollection struct {
	store *Store
	coll  *mongo.Collection
}

func (c *categoryCollection) Create(ctx context.Context, category *model.Category) error {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	if category.ID == "" {
		category.ID = repository.NewID()
	}
	ts := now()
	if category.CreatedAt.IsZero() {
		category.CreatedAt = ts
	}
	category.UpdatedAt = ts
	_, err := c.coll.InsertOne(ctx, category)
	return translate("create category", err)
}

func (c *categoryCollection) FindByID(ctx context.Context, id string) (*model.Category, error) {
	return c.findOne(ctx, "find category", bson.M{"_id": id})
}

func (c *categoryCollection) FindByName(ctx context.Context, userID, name string) (*model.Category, error) {
	return c.findOne(ctx, "find category by name", bson.M{"user_id": userID, "name": name})
}

func (c *categoryCollection) findOne(ctx context.Context, op string, filter bson.M) (*model.Category, error) {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	var category model.Category
	if err := c.coll.FindOne(ctx, filter).Decode(&category); err != nil {
		return nil, translate(op, err)
	}
	return &category, nil
}

func (c *categoryCollection) ListByUser(ctx context.Context, userID string) ([]model.Category, error) {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := c.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, translate("list categories", err)
	}
	var categories []model.Category
	if err := cur.All(ctx, &categories); err != nil {
		return nil, translate("list categories", err)
	}
	return categories, nil
}

func (c *categoryCollection) Delete(ctx context.Context, id string) error {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate("delete category", err)
	}
	if res.DeletedCount == 0 {
		return notFound("delete category")
	}
	return nil
}
