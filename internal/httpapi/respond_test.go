package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager/internal/apperror"
)

func TestFailMapsErrors(t *testing.T) {
	var logs bytes.Buffer
	log := logrus.New()
	log.SetOutput(&logs)
	s := &Server{Deps: Deps{Log: log}}

	notFound := apperror.NotFound("task_not_found", "Task not found")
	tests := []struct {
		name   string
		err    error
		status int
		want   errorJSON
	}{
		{"direct", notFound, http.StatusNotFound, errorJSON{Message: "Task not found", Code: "task_not_found"}},
		{"wrapped", fmt.Errorf("get task: %w", notFound), http.StatusNotFound, errorJSON{Message: "Task not found", Code: "task_not_found"}},
		{"duplicate", apperror.Duplicate("duplicate_email", "User already exists"), http.StatusConflict, errorJSON{Message: "User already exists", Code: "duplicate_email"}},
		{"unexpected", apperror.Unexpected("list tasks", errors.New("disk full")), http.StatusInternalServerError, errorJSON{Message: "internal server error"}},
		{"plain", errors.New("boom"), http.StatusInternalServerError, errorJSON{Message: "internal server error"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var got errorJSON
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, rec.Body.String(), "disk full")
		})
	}
	assert.Contains(t, logs.String(), "disk full")
}
