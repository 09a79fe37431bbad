package adapthttp

import (
	"net/http"

	"github.com/google/uuid"

	"bookwise/internal/apperr"
)

func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := userFromContext(r.Context())
	if user == nil {
		writeError(w, apperr.Unauthorized("not signed in"))
		return
	}

	var req struct {
		BookID string `json:"bookId"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, apperr.InvalidArg("invalid request"))
		return
	}
	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		writeError(w, apperr.InvalidArg("invalid book id"))
		return
	}

	record, err := s.borrows.Borrow(r.Context(), user.ID, bookID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "record": record})
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := userFromContext(r.Context())
	if user == nil {
		writeError(w, apperr.Unauthorized("not signed in"))
		return
	}

	var req struct {
		RecordID string `json:"recordId"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, apperr.InvalidArg("invalid request"))
		return
	}
	recordID, err := uuid.Parse(req.RecordID)
	if err != nil {
		writeError(w, apperr.InvalidArg("invalid record id"))
		return
	}

	record, err := s.borrows.Return(r.Context(), user, recordID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "record": record})
}

func (s *Server) handleMyLoans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := userFromContext(r.Context())
	if user == nil {
		writeError(w, apperr.Unauthorized("not signed in"))
		return
	}

	records, err := s.borrows.ListByUser(r.Context(), user.ID, intQuery(r, "limit", 20))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": records})
}

func (s *Server) handleAllLoans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records, err := s.borrows.ListAll(r.Context(), intQuery(r, "limit", 20))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": records})
}
