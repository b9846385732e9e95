// Package guard decides whether a caller may act on an owned entity.
package guard

import "task-manager/internal/model"

type Action string

const (
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	// ActionComment is adding a comment to a task.
	ActionComment Action = "comment"
)

// Owned is implemented by every entity with a single owning user.
type Owned interface {
	OwnerID() string
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Authorize allows the action only when userID owns entity.
func Authorize(userID string, entity Owned, action Action) Decision {
	if userID == "" {
		return deny("no identity")
	}
	if entity == nil {
		return deny("no entity")
	}
	if entity.OwnerID() != userID {
		return deny("caller does not own the entity for " + string(action))
	}
	return allow()
}

// AuthorizeComment applies the comment rules: the author may do anything with
// a comment, and the owner of task may also delete it. Whether comment really
// belongs to task is checked by the caller.
func AuthorizeComment(userID string, comment *model.Comment, task *model.Task, action Action) Decision {
	if comment == nil {
		return deny("no entity")
	}
	if d := Authorize(userID, comment, action); d.Allowed {
		return d
	}
	if action == ActionDelete && task != nil {
		if d := Authorize(userID, task, action); d.Allowed {
			return d
		}
	}
	return deny("caller is not the comment author for " + string(action))
}
