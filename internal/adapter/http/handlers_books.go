package adapthttp

import (
	"net/http"

	"github.com/google/uuid"

	"bookwise/internal/app"
	"bookwise/internal/apperr"
)

type bookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       string `json:"genre"`
	Rating      int    `json:"rating"`
	CoverURL    string `json:"coverUrl"`
	CoverColor  string `json:"coverColor"`
	Description string `json:"description"`
	TotalCopies int    `json:"totalCopies"`
	VideoURL    string `json:"videoUrl"`
	Summary     string `json:"summary"`
}

func (b bookRequest) params() app.BookParams {
	return app.BookParams{
		Title:       b.Title,
		Author:      b.Author,
		Genre:       b.Genre,
		Rating:      b.Rating,
		CoverURL:    b.CoverURL,
		CoverColor:  b.CoverColor,
		Description: b.Description,
		TotalCopies: b.TotalCopies,
		VideoURL:    b.VideoURL,
		Summary:     b.Summary,
	}
}

func (s *Server) handleBooksList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := intQuery(r, "limit", 20)
	books, err := s.books.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": books})
}

func (s *Server) handleBookDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, apperr.InvalidArg("invalid book id"))
		return
	}

	book, err := s.books.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"book": book})
}

func (s *Server) handleBookCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, apperr.InvalidArg("invalid request"))
		return
	}

	book, err := s.books.Create(r.Context(), req.params())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "book": book})
}

func (s *Server) handleBookUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID string `json:"id"`
		bookRequest
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, apperr.InvalidArg("invalid request"))
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		writeError(w, apperr.InvalidArg("invalid book id"))
		return
	}

	book, err := s.books.Update(r.Context(), id, req.params())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "book": book})
}

func (s *Server) handleBookDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, apperr.InvalidArg("invalid request"))
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		writeError(w, apperr.InvalidArg("invalid book id"))
		return
	}

	if err := s.books.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
