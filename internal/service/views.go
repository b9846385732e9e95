package service

import (
	"context"
	"errors"

	"task-manager/internal/model"
	"task-manager/internal/repository"
)

// CategoryRef is the category summary carried by task responses.
type CategoryRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TaskView is a task with its category resolved. Category is nil when the
// task is uncategorized.
type TaskView struct {
	model.Task
	Category *CategoryRef `json:"category"`
}

// AuthorRef names the user who wrote a comment.
type AuthorRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CommentView is a comment with its author resolved.
type CommentView struct {
	model.Comment
	User AuthorRef `json:"user"`
}

func categoryRef(c *model.Category) *CategoryRef {
	if c == nil {
		return nil
	}
	return &CategoryRef{ID: c.ID, Name: c.Name, Color: c.Color}
}

func authorRef(u *model.User) AuthorRef {
	return AuthorRef{ID: u.ID, Name: u.Name}
}

// taskView resolves the category of a single task. A dangling category
// reference resolves to nil.
func taskView(ctx context.Context, store repository.Store, task *model.Task) (*TaskView, error) {
	view := &TaskView{Task: *task}
	if task.CategoryID == nil {
		return view, nil
	}
	category, err := store.Categories().FindByID(ctx, *task.CategoryID)
	switch {
	case err == nil:
		view.Category = categoryRef(category)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storeErr("find category", err, nil)
	}
	return view, nil
}

// taskViews resolves categories for tasks that all belong to ownerID, loading
// the owner's categories at most once.
func taskViews(ctx context.Context, store repository.Store, ownerID string, tasks []model.Task) ([]TaskView, error) {
	views := make([]TaskView, 0, len(tasks))
	var refs map[string]*CategoryRef
	for _, task := range tasks {
		view := TaskView{Task: task}
		if task.CategoryID != nil {
			if refs == nil {
				categories, err := store.Categories().ListByUser(ctx, ownerID)
				if err != nil {
					return nil, storeErr("list categories", err, nil)
				}
				refs = make(map[string]*CategoryRef, len(categories))
				for i := range categories {
					refs[categories[i].ID] = categoryRef(&categories[i])
				}
			}
			view.Category = refs[*task.CategoryID]
		}
		views = append(views, view)
	}
	return views, nil
}

// commentViews resolves comment authors, one lookup per distinct author.
// Authors that no longer exist keep their id with an empty name.
func commentViews(ctx context.Context, store repository.Store, comments []model.Comment) ([]CommentView, error) {
	views := make([]CommentView, 0, len(comments))
	authors := make(map[string]AuthorRef)
	for _, comment := range comments {
		author, ok := authors[comment.UserID]
		if !ok {
			user, err := store.Users().FindByID(ctx, comment.UserID)
			switch {
			case err == nil:
				author = authorRef(user)
			case errors.Is(err, repository.ErrNotFound):
				author = AuthorRef{ID: comment.UserID}
			default:
				return nil, storeErr("find comment author", err, nil)
			}
			authors[comment.UserID] = author
		}
		views = append(views, CommentView{Comment: comment, User: author})
	}
	return views, nil
}
