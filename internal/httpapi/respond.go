package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"task-manager/internal/apperror"
	"task-manager/internal/logging"
)

const maxBodyBytes = 1 << 20

var errBadJSON = apperror.Validation("invalid_json", "Request body must be valid JSON")

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation, apperror.KindMismatch:
		return http.StatusBadRequest
	case apperror.KindDuplicate:
		return http.StatusConflict
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error body. Unexpected errors are logged and
// their details withheld from the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind == apperror.KindUnexpected {
		s.entry(r).WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "internal server error"})
		return
	}
	writeJSON(w, statusOf(appErr.Kind), errorBody{Message: appErr.Message, Code: appErr.Code})
}

func (s *Server) entry(r *http.Request) *logrus.Entry {
	return logging.FromContext(r.Context(), s.Log)
}

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errBadJSON.Wrap(err)
	}
	return nil
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperror.Validation("invalid_date", fmt.Sprintf("%s must be an RFC 3339 timestamp or YYYY-MM-DD", field))
}

// emptyIfNil keeps list responses as [] rather than null.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
