// Package httpapi exposes the task manager over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"task-manager/internal/metrics"
	"task-manager/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators a Server routes requests to.
type Deps struct {
	Store      Pinger
	Auth       *service.AuthService
	Categories *service.CategoryService
	Tasks      *service.TaskService
	Comments   *service.CommentService
	Metrics    *metrics.Metrics
	Log        *logrus.Logger
}

type Options struct {
	AllowedOrigins []string
	// AuthRateLimit is requests per second per client on the credential routes.
	AuthRateLimit float64
	AuthRateBurst int
}

type Server struct {
	Deps
	opts    Options
	limiter *RateLimiter
}

func New(deps Deps, opts Options) *Server {
	if opts.AuthRateLimit <= 0 {
		opts.AuthRateLimit = 5
	}
	if opts.AuthRateBurst <= 0 {
		opts.AuthRateBurst = 10
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{
		Deps:    deps,
		opts:    opts,
		limiter: NewRateLimiter(opts.AuthRateLimit, opts.AuthRateBurst, deps.Log),
	}
}

// Handler builds the full middleware chain around the router.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", traceHeader},
		ExposedHeaders: []string{traceHeader},
	})
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(s.Log),
		handlers.PrintRecoveryStack(true),
	)
	return c.Handler(recovery(s.Router()))
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.traceMiddleware, s.metricsMiddleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Message: "Not found", Code: "route_not_found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Message: "Method not allowed", Code: "method_not_allowed"})
	})

	r.HandleFunc("/", s.root).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	r.Handle("/metrics", s.Metrics.Handler()).Methods(http.MethodGet)

	r.Handle("/api/users", s.limited(s.register)).Methods(http.MethodPost)
	r.Handle("/api/users/me", s.protected(s.profile)).Methods(http.MethodGet)
	r.Handle("/api/users/me/telegram", s.protected(s.linkTelegram)).Methods(http.MethodPut)

	r.Handle("/api/auth/login", s.limited(s.login)).Methods(http.MethodPost)
	r.Handle("/api/auth/forgotpassword", s.limited(s.forgotPassword)).Methods(http.MethodPost)
	r.Handle("/api/auth/resetpassword/{resettoken}", s.limited(s.resetPassword)).Methods(http.MethodPut)

	r.Handle("/api/categories", s.protected(s.listCategories)).Methods(http.MethodGet)
	r.Handle("/api/categories", s.protected(s.createCategory)).Methods(http.MethodPost)
	r.Handle("/api/categories/{id}", s.protected(s.deleteCategory)).Methods(http.MethodDelete)

	r.Handle("/api/tasks", s.protected(s.listTasks)).Methods(http.MethodGet)
	r.Handle("/api/tasks", s.protected(s.createTask)).Methods(http.MethodPost)
	r.Handle("/api/tasks/search", s.protected(s.searchTasks)).Methods(http.MethodGet)
	r.Handle("/api/tasks/category/{categoryId}", s.protected(s.tasksByCategory)).Methods(http.MethodGet)
	r.Handle("/api/tasks/{id}", s.protected(s.getTask)).Methods(http.MethodGet)
	r.Handle("/api/tasks/{id}", s.protected(s.updateTask)).Methods(http.MethodPut)
	r.Handle("/api/tasks/{id}", s.protected(s.deleteTask)).Methods(http.MethodDelete)

	r.Handle("/api/tasks/{id}/comments", s.protected(s.listComments)).Methods(http.MethodGet)
	r.Handle("/api/tasks/{id}/comments", s.protected(s.addComment)).Methods(http.MethodPost)
	r.Handle("/api/tasks/{id}/comments/{commentId}", s.protected(s.updateComment)).Methods(http.MethodPut)
	r.Handle("/api/tasks/{id}/comments/{commentId}", s.protected(s.deleteComment)).Methods(http.MethodDelete)

	return r
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Task Management API is running"))
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		s.entry(r).WithError(err).Warn("store ping failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) Limiter() *RateLimiter {
	return s.limiter
}
