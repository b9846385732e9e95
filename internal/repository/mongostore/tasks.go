package mongostore

import (
	"context"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"task-manager/internal/model"
	"task-manager/internal/repository"
)

type taskCollection struct {
	store *Store
	coll  *mongo.Collection
}

func (c *taskCollection) Create(ctx context.Context, task *model.Task) error {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	if task.ID == "" {
		task.ID = repository.NewID()
	}
	if task.CommentIDs == nil {
		task.CommentIDs = []string{}
	}
	ts := now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = ts
	}
	task.UpdatedAt = ts
	_, err := c.coll.InsertOne(ctx, task)
	return translate("create task", err)
}

func (c *taskCollection) FindByID(ctx context.Context, id string) (*model.Task, error) {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	var task model.Task
	if err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&task); err != nil {
		return nil, translate("find task", err)
	}
	return &task, nil
}

func (c *taskCollection) Find(ctx context.Context, f repository.TaskFilter) ([]model.Task, error) {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	filter := bson.M{}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.CategoryID != "" {
		filter["category_id"] = f.CategoryID
	}
	if f.Title != "" {
		filter["title"] = containsInsensitive(f.Title)
	}
	if f.Description != "" {
		filter["description"] = containsInsensitive(f.Description)
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}
	if f.DueFrom != nil || f.DueTo != nil {
		due := bson.M{}
		if f.DueFrom != nil {
			due["$gte"] = f.DueFrom.UTC()
		}
		if f.DueTo != nil {
			due["$lte"] = f.DueTo.UTC()
		}
		filter["due_date"] = due
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate("find tasks", err)
	}
	var tasks []model.Task
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, translate("find tasks", err)
	}
	return tasks, nil
}

func containsInsensitive(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}

func (c *taskCollection) Update(ctx context.Context, id string, p repository.TaskPatch) (*model.Task, error) {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	set := bson.M{"updated_at": now()}
	unset := bson.M{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Priority != nil {
		set["priority"] = *p.Priority
	}
	switch {
	case p.ClearDueDate:
		unset["due_date"] = ""
	case p.DueDate != nil:
		set["due_date"] = p.DueDate.UTC()
	}
	switch {
	case p.ClearCategory:
		unset["category_id"] = ""
	case p.CategoryID != nil:
		set["category_id"] = *p.CategoryID
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var task model.Task
	if err := c.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&task); err != nil {
		return nil, translate("update task", err)
	}
	return &task, nil
}

func (c *taskCollection) Delete(ctx context.Context, id string) error {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate("delete task", err)
	}
	if res.DeletedCount == 0 {
		return notFound("delete task")
	}
	return nil
}

func (c *taskCollection) ClearCategory(ctx context.Context, categoryID string) (int64, error) {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	res, err := c.coll.UpdateMany(ctx,
		bson.M{"category_id": categoryID},
		bson.M{"$unset": bson.M{"category_id": ""}, "$set": bson.M{"updated_at": now()}},
	)
	if err != nil {
		return 0, translate("clear task category", err)
	}
	return res.ModifiedCount, nil
}

func (c *taskCollection) AppendComment(ctx context.Context, taskID, commentID string) error {
	return c.updateComments(ctx, "append comment", taskID, bson.M{"$addToSet": bson.M{"comment_ids": commentID}})
}

func (c *taskCollection) RemoveComment(ctx context.Context, taskID, commentID string) error {
	return c.updateComments(ctx, "remove comment", taskID, bson.M{"$pull": bson.M{"comment_ids": commentID}})
}

func (c *taskCollection) updateComments(ctx context.Context, op, taskID string, update bson.M) error {
	ctx, cancel := c.store.opContext(ctx)
	defer cancel()

	res, err := c.coll.UpdateOne(ctx, bson.M{"_id": taskID}, update)
	if err != nil {
		return translate(op, err)
	}
	if res.MatchedCount == 0 {
		return notFound(op)
	}
	return nil
}
