package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"task-manager/internal/model"
	"task-manager/internal/repository"
	"task-manager/internal/service"
)

type taskBody struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"dueDate"`
	Category    *string `json:"category"`
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.Tasks.ListTasks(r.Context(), UserFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(tasks))
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var body taskBody
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	input := service.TaskInput{
		Title:       body.Title,
		Description: body.Description,
		Status:      model.TaskStatus(strings.TrimSpace(body.Status)),
		Priority:    model.TaskPriority(strings.TrimSpace(body.Priority)),
	}
	if body.DueDate != nil {
		due, err := parseDate("dueDate", *body.DueDate)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		input.DueDate = due
	}
	if body.Category != nil {
		input.CategoryID = *body.Category
	}

	task, err := s.Tasks.CreateTask(r.Context(), UserFrom(r.Context()), input)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	detail, err := s.Tasks.GetTask(r.Context(), UserFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	detail.Comments = emptyIfNil(detail.Comments)
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	var fields map[string]json.RawMessage
	if err := decode(r, &fields); err != nil {
		s.fail(w, r, err)
		return
	}
	patch, err := decodePatch(fields)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	task, err := s.Tasks.UpdateTask(r.Context(), UserFrom(r.Context()), mux.Vars(r)["id"], patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// decodePatch turns the fields present in an update body into a patch.
// A null or empty dueDate or category clears the stored value.
func decodePatch(fields map[string]json.RawMessage) (repository.TaskPatch, error) {
	var patch repository.TaskPatch

	str := func(key string) (*string, bool, error) {
		raw, ok := fields[key]
		if !ok {
			return nil, false, nil
		}
		if isNull(raw) {
			return nil, true, nil
		}
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, true, errBadJSON.Wrap(err)
		}
		return &v, true, nil
	}

	if v, ok, err := str("title"); err != nil {
		return patch, err
	} else if ok {
		patch.Title = orEmpty(v)
	}
	if v, ok, err := str("description"); err != nil {
		return patch, err
	} else if ok {
		patch.Description = orEmpty(v)
	}
	if v, ok, err := str("status"); err != nil {
		return patch, err
	} else if ok {
		status := model.TaskStatus(strings.TrimSpace(*orEmpty(v)))
		patch.Status = &status
	}
	if v, ok, err := str("priority"); err != nil {
		return patch, err
	} else if ok {
		priority := model.TaskPriority(strings.TrimSpace(*orEmpty(v)))
		patch.Priority = &priority
	}
	if v, ok, err := str("dueDate"); err != nil {
		return patch, err
	} else if ok {
		due, err := parseDate("dueDate", *orEmpty(v))
		if err != nil {
			return patch, err
		}
		if due == nil {
			patch.ClearDueDate = true
		} else {
			patch.DueDate = due
		}
	}
	if v, ok, err := str("category"); err != nil {
		return patch, err
	} else if ok {
		patch.CategoryID = orEmpty(v)
	}
	return patch, nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func orEmpty(v *string) *string {
	if v == nil {
		empty := ""
		return &empty
	}
	return v
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.Tasks.DeleteTask(r.Context(), UserFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Task removed"})
}

func (s *Server) searchTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := service.SearchFilter{
		Title:       q.Get("title"),
		Description: q.Get("description"),
		Status:      model.TaskStatus(strings.TrimSpace(q.Get("status"))),
		Priority:    model.TaskPriority(strings.TrimSpace(q.Get("priority"))),
	}
	var err error
	if filter.StartDate, err = parseDate("startDate", q.Get("startDate")); err != nil {
		s.fail(w, r, err)
		return
	}
	if filter.EndDate, err = parseDate("endDate", q.Get("endDate")); err != nil {
		s.fail(w, r, err)
		return
	}

	tasks, err := s.Tasks.SearchTasks(r.Context(), UserFrom(r.Context()), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(tasks))
}
