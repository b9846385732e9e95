package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"task-manager/internal/service"
)

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.Categories.List(r.Context(), UserFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(categories))
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	category, err := s.Categories.Create(r.Context(), UserFrom(r.Context()), service.CategoryInput{
		Name:  body.Name,
		Color: body.Color,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.Categories.Delete(r.Context(), UserFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Category removed"})
}

func (s *Server) tasksByCategory(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.Categories.TasksByCategory(r.Context(), UserFrom(r.Context()), mux.Vars(r)["categoryId"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(tasks))
}
