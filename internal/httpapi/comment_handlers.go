package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

type commentBody struct {
	Text string `json:"text"`
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.Comments.GetComments(r.Context(), UserFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(comments))
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	var body commentBody
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	comment, err := s.Comments.AddComment(r.Context(), UserFrom(r.Context()), mux.Vars(r)["id"], body.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) updateComment(w http.ResponseWriter, r *http.Request) {
	var body commentBody
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	vars := mux.Vars(r)
	comment, err := s.Comments.UpdateComment(r.Context(), UserFrom(r.Context()), vars["id"], vars["commentId"], body.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.Comments.DeleteComment(r.Context(), UserFrom(r.Context()), vars["id"], vars["commentId"]); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Comment removed"})
}
