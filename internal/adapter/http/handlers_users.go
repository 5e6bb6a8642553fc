package adapthttp

import (
	"errors"
	"net/http"

	"identity/internal/app"
	"identity/internal/domain"
)

func (s *Server) handleFindAll(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.FindAll(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(users), "users": users})
}

func (s *Server) handleFindByQuery(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.FindByQuery(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(users), "users": users})
}

func (s *Server) handleFindByCursor(w http.ResponseWriter, r *http.Request) {
	pageSize := intQuery(r, "pageSize", 0)
	page, err := s.users.FindByCursor(r.Context(), pageSize, r.URL.Query().Get("after"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var next *string
	if page.NextCursor != "" {
		next = &page.NextCursor
	}
	writeJSON(w, http.StatusOK, struct {
		Count      int                 `json:"count"`
		NextCursor *string             `json:"nextCursor"`
		Users      []domain.PublicUser `json:"users"`
	}{Count: len(page.Users), NextCursor: next, Users: page.Users})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.users.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCreateOne(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := parseJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	user, err := s.users.CreateOne(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "User created", "user": user})
}

func (s *Server) handleCreateMany(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Users []app.CreateInput `json:"users"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	inserted, err := s.users.CreateMany(r.Context(), req.Users)
	if errors.Is(err, domain.ErrConflict) {
		// Unordered bulk insert: the non-duplicate entries stay persisted.
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":         "duplicate email detected",
			"insertedCount": inserted,
		})
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":       "Users created",
		"insertedCount": inserted,
	})
}

func (s *Server) handleUpdateOne(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := parseJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := s.users.UpdateOne(r.Context(), r.PathValue("id"), payload)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUpdateMany(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filter *domain.Filter `json:"filter"`
		Update map[string]any `json:"update"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := s.users.UpdateMany(r.Context(), req.Filter, req.Update)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReplaceOne(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := parseJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := s.users.ReplaceOne(r.Context(), r.PathValue("id"), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteOne(w http.ResponseWriter, r *http.Request) {
	result, err := s.users.DeleteOne(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteMany(w http.ResponseWriter, r *http.Request) {
	// The body is the filter itself; an empty body selects everything.
	var filter domain.Filter
	if err := parseOptionalJSON(r, &filter); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := s.users.DeleteMany(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
