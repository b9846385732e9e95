package service

import (
	"errors"

	"task-manager/internal/apperror"
	"task-manager/internal/repository"
)

var (
	ErrInvalidInput       = apperror.Validation("invalid_input", "Invalid input")
	ErrMissingName        = apperror.Validation("missing_name", "Category name is required")
	ErrMissingTitle       = apperror.Validation("missing_title", "Task title is required")
	ErrMissingText        = apperror.Validation("missing_text", "Comment text is required")
	ErrInvalidStatus      = apperror.Validation("invalid_status", "Status must be one of pending, in-progress, completed")
	ErrInvalidPriority    = apperror.Validation("invalid_priority", "Priority must be one of low, medium, high")
	ErrInvalidResetToken  = apperror.Validation("invalid_or_expired_token", "Invalid or expired token")
	ErrDuplicateEmail     = apperror.Duplicate("duplicate_email", "User already exists")
	ErrDuplicateName      = apperror.Duplicate("duplicate_name", "Category with this name already exists")
	ErrTelegramChatTaken  = apperror.Duplicate("telegram_chat_taken", "This Telegram chat is linked to another account")
	ErrUserNotFound       = apperror.NotFound("user_not_found", "There is no user with that email")
	ErrCategoryNotFound   = apperror.NotFound("category_not_found", "Category not found")
	ErrCategoryNotOwned   = apperror.NotFound("category_not_owned", "Category not found or does not belong to you")
	ErrTaskNotFound       = apperror.NotFound("task_not_found", "Task not found")
	ErrCommentNotFound    = apperror.NotFound("comment_not_found", "Comment not found")
	ErrForbidden          = apperror.Forbidden("forbidden", "Not authorized")
	ErrInvalidCredentials = apperror.Unauthenticated("invalid_credentials", "Invalid email or password")
	ErrUnauthenticated    = apperror.Unauthenticated("unauthenticated", "Not authorized, token failed")
	ErrCommentMismatch    = apperror.Mismatch("comment_task_mismatch", "Comment does not belong to this task")

	errProfileNotFound = apperror.NotFound("user_not_found", "User not found")
)

func forbidden(message string) error {
	return apperror.Forbidden(ErrForbidden.Code, message)
}

func invalidInput(message string) error {
	return apperror.Validation(ErrInvalidInput.Code, message)
}

// storeErr maps a store failure to notFound when the record is missing and to
// an unexpected error otherwise.
func storeErr(op string, err error, notFound *apperror.Error) error {
	if notFound != nil && errors.Is(err, repository.ErrNotFound) {
		return notFound.Wrap(err)
	}
	return apperror.Unexpected(op, err)
}
