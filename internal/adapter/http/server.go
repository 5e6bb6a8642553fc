// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"log/slog"
	"net/http"
	"time"

	"identity/internal/app"
)

// Server is the driving HTTP adapter that routes requests to application
// services and owns the session cookie transport.
type Server struct {
	auth       *app.AuthService
	users      *app.UserService
	sessionTTL time.Duration
	log        *slog.Logger
}

// New creates a Server wired to the given application services.
func New(auth *app.AuthService, users *app.UserService, sessionTTL time.Duration, log *slog.Logger) *Server {
	return &Server{auth: auth, users: users, sessionTTL: sessionTTL, log: log}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("GET /me", s.handleMe)

	// Administrative routes require an authenticated session.
	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.requireAuth(h))
	}
	protected("GET /users", s.handleFindAll)
	protected("GET /users/search", s.handleFindByQuery)
	protected("GET /users/cursor", s.handleFindByCursor)
	protected("GET /users/stats", s.handleStats)
	protected("POST /users/one", s.handleCreateOne)
	protected("POST /users/many", s.handleCreateMany)
	protected("PATCH /users/one/{id}", s.handleUpdateOne)
	protected("PATCH /users/many", s.handleUpdateMany)
	protected("PUT /users/replace/{id}", s.handleReplaceOne)
	protected("DELETE /users/one/{id}", s.handleDeleteOne)
	protected("DELETE /users/many", s.handleDeleteMany)

	return s.withAccessLog(mux)
}
