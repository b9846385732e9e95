package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"task-manager/internal/model"
)

func TestAuthorizeOwnerOnly(t *testing.T) {
	owned := []Owned{
		&model.Category{UserID: "alice"},
		&model.Task{UserID: "alice"},
		&model.Comment{UserID: "alice"},
	}
	actions := []Action{ActionRead, ActionUpdate, ActionDelete, ActionComment}

	for _, entity := range owned {
		for _, action := range actions {
			assert.True(t, Authorize("alice", entity, action).Allowed, "%T %s", entity, action)

			d := Authorize("bob", entity, action)
			assert.False(t, d.Allowed, "%T %s", entity, action)
			assert.NotEmpty(t, d.Reason)
		}
	}
}

func TestAuthorizeDeniesMissingIdentity(t *testing.T) {
	assert.False(t, Authorize("", &model.Task{UserID: ""}, ActionRead).Allowed)
	assert.False(t, Authorize("alice", nil, ActionRead).Allowed)
}

func TestAuthorizeComment(t *testing.T) {
	task := &model.Task{ID: "t1", UserID: "owner"}
	comment := &model.Comment{ID: "c1", TaskID: "t1", UserID: "author"}

	tests := []struct {
		name    string
		caller  string
		action  Action
		allowed bool
	}{
		{"author updates", "author", ActionUpdate, true},
		{"author deletes", "author", ActionDelete, true},
		{"task owner deletes", "owner", ActionDelete, true},
		{"task owner cannot update", "owner", ActionUpdate, false},
		{"stranger deletes", "stranger", ActionDelete, false},
		{"stranger updates", "stranger", ActionUpdate, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, AuthorizeComment(tt.caller, comment, task, tt.action).Allowed)
		})
	}
}
