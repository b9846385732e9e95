package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"task-manager/internal/model"
	"task-manager/internal/repository"
)

type commentCollection struct {
	store *Store
	coll  *mongo.Collection
}

func (c *commentCollection) Create(ctx context.Context, comment *model.Comment) error {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	if comment.ID == "" {
		comment.ID = repository.NewID()
	}
	ts := now()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = ts
	}
	comment.UpdatedAt = ts
	_, err := c.coll.InsertOne(ctx, comment)
	return translate("create comment", err)
}

func (c *commentCollection) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	var comment model.Comment
	if err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&comment); err != nil {
		return nil, translate("find comment", err)
	}
	return &comment, nil
}

func (c *commentCollection) ListByTask(ctx context.Context, taskID string) ([]model.Comment, error) {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := c.coll.Find(ctx, bson.M{"task_id": taskID}, opts)
	if err != nil {
		return nil, translate("list comments", err)
	}
	var comments []model.Comment
	if err := cur.All(ctx, &comments); err != nil {
		return nil, translate("list comments", err)
	}
	return comments, nil
}

func (c *commentCollection) UpdateText(ctx context.Context, id, text string) (*model.Comment, error) {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"text": text, "updated_at": now()}}
	var comment model.Comment
	if err := c.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&comment); err != nil {
		return nil, translate("update comment", err)
	}
	return &comment, nil
}

func (c *commentCollection) Delete(ctx context.Context, id string) error {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate("delete comment", err)
	}
	if res.DeletedCount == 0 {
		return notFound("delete comment")
	}
	return nil
}

func (c *commentCollection) DeleteByTask(ctx context.Context, taskID string) (int64, error) {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	res, err := c.coll.DeleteMany(ctx, bson.M{"task_id": taskID})
	if err != nil {
		return 0, translate("delete task comments", err)
	}
	return res.DeletedCount, nil
}
