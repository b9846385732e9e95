package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMatchesKindAndCode(t *testing.T) {
	missing := Validation("missing_title", "Task title is required")
	wrapped := fmt.Errorf("create task: %w", missing)

	assert.ErrorIs(t, wrapped, missing)
	assert.ErrorIs(t, wrapped, &Error{Kind: KindValidation})
	assert.NotErrorIs(t, wrapped, Validation("missing_name", "Category name is required"))
	assert.NotErrorIs(t, wrapped, &Error{Kind: KindNotFound})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindForbidden, KindOf(fmt.Errorf("x: %w", Forbidden("forbidden", "no"))))
	assert.Equal(t, KindUnexpected, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnexpected, KindOf(nil))
}

func TestUnexpectedKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unexpected("load task", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "load task: connection refused", err.Error())

	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "load task", e.Message)
}

func TestWrapDoesNotMutateOriginal(t *testing.T) {
	base := NotFound("task_not_found", "Task not found")
	cause := errors.New("record not found")
	w := base.Wrap(cause)

	assert.Nil(t, base.Err)
	assert.ErrorIs(t, w, base)
	assert.ErrorIs(t, w, cause)
}
