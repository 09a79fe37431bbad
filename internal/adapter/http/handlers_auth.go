// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"net/http"

	"bookwise/internal/app"
	"bookwise/internal/apperr"
)

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		FullName       string `json:"fullName"`
		Email          string `json:"email"`
		Password       string `json:"password"`
		UniversityID   int64  `json:"universityId"`
		UniversityCard string `json:"universityCard"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, apperr.InvalidArg("invalid request"))
		return
	}
	if req.FullName == "" || req.Email == "" || len(req.Password) < 8 {
		writeError(w, apperr.InvalidArg("full name, email and a password of at least 8 characters are required"))
		return
	}

	result, err := s.auth.SignUp(r.Context(), app.SignUpParams{
		FullName:       req.FullName,
		Email:          req.Email,
		Password:       req.Password,
		UniversityID:   req.UniversityID,
		UniversityCard: req.UniversityCard,
	}, s.clientOriginKey(r), sessionMeta(r))
	if err != nil {
		// The gate's denial is the one failure signalled by navigation
		// rather than a payload.
		if apperr.IsCode(err, apperr.CodeRateLimited) {
			http.Redirect(w, r, tooFastPath, http.StatusSeeOther)
			return
		}
		writeError(w, err)
		return
	}

	if result.SessionToken != "" {
		setSessionCookie(w, result.SessionToken)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"userId":  result.User.ID,
	})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, apperr.InvalidArg("invalid request"))
		return
	}

	token, err := s.auth.SignIn(r.Context(), req.Email, req.Password, s.clientOriginKey(r), sessionMeta(r))
	if err != nil {
		if apperr.IsCode(err, apperr.CodeRateLimited) {
			http.Redirect(w, r, tooFastPath, http.StatusSeeOther)
			return
		}
		writeError(w, err)
		return
	}

	setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if cookie, err := r.Cookie(sessionCookie); err == nil {
		_ = s.auth.SignOut(r.Context(), cookie.Value)
	}

	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": userFromContext(r.Context())})
}

func (s *Server) handleAuthConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sso_enabled": s.oidc.Enabled,
	})
}

func sessionMeta(r *http.Request) app.SessionMeta {
	return app.SessionMeta{
		UserAgent: r.UserAgent(),
		IP:        r.RemoteAddr,
	}
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   86400,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
