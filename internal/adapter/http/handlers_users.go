package adapthttp

import (
	"net/http"

	"github.com/google/uuid"

	"bookwise/internal/apperr"
	"bookwise/internal/domain"
)

func (s *Server) handleUsersList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	users, err := s.users.List(r.Context(), intQuery(r, "limit", 20))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": users})
}

func (s *Server) handleUserStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, apperr.InvalidArg("invalid request"))
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		writeError(w, apperr.InvalidArg("invalid user id"))
		return
	}

	if err := s.users.SetStatus(r.Context(), id, domain.UserStatus(req.Status)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
