package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"task-manager/internal/service"
)

type sessionResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

func newSessionResponse(s *service.Session) sessionResponse {
	return sessionResponse{ID: s.User.ID, Name: s.User.Name, Email: s.User.Email, Token: s.Token}
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	session, err := s.Auth.Register(r.Context(), service.RegisterInput{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(session))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	session, err := s.Auth.Authenticate(r.Context(), body.Email, body.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	token, err := s.Auth.IssueResetToken(r.Context(), body.Email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	// No mail delivery: the token goes back to the caller.
	writeJSON(w, http.StatusOK, map[string]string{
		"message":    "Reset token generated",
		"resetToken": token,
	})
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	session, err := s.Auth.ResetPassword(r.Context(), mux.Vars(r)["resettoken"], body.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": session.Token})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	user, err := s.Auth.Profile(r.Context(), UserFrom(r.Context()).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) linkTelegram(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChatID int64 `json:"chatId"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.Auth.LinkTelegram(r.Context(), UserFrom(r.Context()), body.ChatID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
