package adapthttp

import (
	"log/slog"
	"net/http"

	"bookwise/internal/app"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth    *app.AuthService
	books   *app.BookService
	borrows *app.BorrowService
	users   *app.UserService
	media   *app.MediaService
	logger  *slog.Logger

	webDir      string
	fallbackKey string
	oidc        *OIDCConfig
}

// New creates a Server wired to the given application services. fallbackKey
// is charged against the rate gate when the client origin cannot be derived.
func New(auth *app.AuthService, books *app.BookService, borrows *app.BorrowService, users *app.UserService, media *app.MediaService, logger *slog.Logger, webDir, fallbackKey string, oidc *OIDCConfig) *Server {
	if oidc == nil {
		oidc = &OIDCConfig{}
	}
	return &Server{
		auth:        auth,
		books:       books,
		borrows:     borrows,
		users:       users,
		media:       media,
		logger:      logger,
		webDir:      webDir,
		fallbackKey: fallbackKey,
		oidc:        oidc,
	}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("/auth/sign-up", s.handleSignUp)
	api.HandleFunc("/auth/sign-in", s.handleSignIn)
	api.HandleFunc("/auth/sign-out", s.handleSignOut)
	api.HandleFunc("/auth/config", s.handleAuthConfig)
	api.Handle("/auth/me", s.requireAuth(http.HandlerFunc(s.handleMe)))
	api.HandleFunc("/auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("/auth/sso/callback", s.handleSSOCallback)

	api.HandleFunc("/books", s.handleBooksList)
	api.HandleFunc("/books/detail", s.handleBookDetail)
	api.Handle("/books/create", s.requireAdmin(http.HandlerFunc(s.handleBookCreate)))
	api.Handle("/books/update", s.requireAdmin(http.HandlerFunc(s.handleBookUpdate)))
	api.Handle("/books/delete", s.requireAdmin(http.HandlerFunc(s.handleBookDelete)))

	api.Handle("/borrow", s.requireAuth(http.HandlerFunc(s.handleBorrow)))
	api.Handle("/borrow/return", s.requireAuth(http.HandlerFunc(s.handleReturn)))
	api.Handle("/borrow/mine", s.requireAuth(http.HandlerFunc(s.handleMyLoans)))
	api.Handle("/borrow/all", s.requireAdmin(http.HandlerFunc(s.handleAllLoans)))

	api.Handle("/users", s.requireAdmin(http.HandlerFunc(s.handleUsersList)))
	api.Handle("/users/status", s.requireAdmin(http.HandlerFunc(s.handleUserStatus)))

	api.Handle("/media/upload-auth", s.requireAuth(http.HandlerFunc(s.handleUploadAuth)))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	root.Handle("/", spaFromDisk(s.webDir))

	return s.loggingMiddleware(withNoCache(root))
}
