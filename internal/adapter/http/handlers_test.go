package adapthttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"bookwise/internal/adapter/memory"
	"bookwise/internal/app"
	"bookwise/internal/domain"
)

// windowGate is a fixed-quota admission gate for tests. No expiry; each test
// gets a fresh one.
type windowGate struct {
	mu     sync.Mutex
	max    int
	counts map[string]int
}

func newWindowGate(max int) *windowGate {
	return &windowGate{max: max, counts: make(map[string]int)}
}

func (g *windowGate) Allow(ctx context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counts[key]++
	return g.counts[key] <= g.max, nil
}

type fixture struct {
	handler http.Handler
	db      *memory.DB
	users   *memory.UserRepo
}

func newFixture(t *testing.T, gate domain.RateGate) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := memory.New()
	users := memory.NewUserRepo(db)
	sessions := memory.NewSessionRepo(db)

	auth := app.NewAuthService(users, sessions, gate, logger, app.AuthConfig{})
	books := app.NewBookService(memory.NewBookRepo(db), logger)
	borrows := app.NewBorrowService(memory.NewBorrowRepo(db), users, logger, 0)
	userSvc := app.NewUserService(users, logger)
	media := app.NewMediaService("pk", "sk", "https://ik.example.com/lib", 0)

	srv := New(auth, books, borrows, userSvc, media, logger, t.TempDir(), "127.0.0.1", nil)
	return &fixture{handler: srv.Handler(), db: db, users: users}
}

func (f *fixture) do(method, path, body string, mod func(*http.Request)) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	if mod != nil {
		mod(req)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return body
}

const signUpBody = `{"fullName":"Ada Lovelace","email":"ada@example.edu","password":"correct horse","universityId":12345,"universityCard":"https://cdn.example.com/ada.png"}`

func (f *fixture) signUp(t *testing.T) *http.Cookie {
	t.Helper()
	w := f.do(http.MethodPost, "/api/auth/sign-up", signUpBody, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("sign-up status = %d, body %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" && c.Value != "" {
			return c
		}
	}
	t.Fatal("sign-up did not set a session cookie")
	return nil
}

func TestSignUpFlow(t *testing.T) {
	f := newFixture(t, newWindowGate(100))

	w := f.do(http.MethodPost, "/api/auth/sign-up", signUpBody, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	if body["userId"] == "" || body["userId"] == nil {
		t.Error("expected a userId in the response")
	}
	if f.db.UserCount() != 1 {
		t.Errorf("user count = %d, want 1", f.db.UserCount())
	}
}

func TestSignUpDuplicateConflict(t *testing.T) {
	f := newFixture(t, newWindowGate(100))
	f.signUp(t)

	w := f.do(http.MethodPost, "/api/auth/sign-up", signUpBody, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	body := decodeBody(t, w)
	if body["error"] != "User already exists" {
		t.Errorf("error = %q, want %q", body["error"], "User already exists")
	}
	if f.db.UserCount() != 1 {
		t.Errorf("user count = %d, want 1", f.db.UserCount())
	}
}

func TestSignUpValidation(t *testing.T) {
	f := newFixture(t, newWindowGate(100))

	w := f.do(http.MethodPost, "/api/auth/sign-up",
		`{"fullName":"Ada","email":"ada@example.edu","password":"short"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if f.db.UserCount() != 0 {
		t.Errorf("user count = %d, want 0", f.db.UserCount())
	}
}

func TestSignInWrongPassword(t *testing.T) {
	f := newFixture(t, newWindowGate(100))
	f.signUp(t)

	w := f.do(http.MethodPost, "/api/auth/sign-in",
		`{"email":"ada@example.edu","password":"wrong password"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	body := decodeBody(t, w)
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
}

// The eleventh attempt inside the window is redirected rather than answered.
func TestRateLimitRedirectsToTooFast(t *testing.T) {
	f := newFixture(t, newWindowGate(10))
	f.signUp(t)

	body := `{"email":"ada@example.edu","password":"correct horse"}`
	for i := 0; i < 9; i++ {
		w := f.do(http.MethodPost, "/api/auth/sign-in", body, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("attempt %d: status = %d", i+2, w.Code)
		}
	}

	w := f.do(http.MethodPost, "/api/auth/sign-in", body, nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/too-fast" {
		t.Errorf("Location = %q, want /too-fast", loc)
	}
}

// Separate client origins carry separate quotas.
func TestRateLimitIsPerOrigin(t *testing.T) {
	f := newFixture(t, newWindowGate(1))
	f.signUp(t) // consumes 203.0.113.9's quota

	w := f.do(http.MethodPost, "/api/auth/sign-in",
		`{"email":"ada@example.edu","password":"correct horse"}`,
		func(r *http.Request) { r.Header.Set("X-Forwarded-For", "198.51.100.7") })
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for a fresh origin", w.Code)
	}
}

func TestMeRequiresSession(t *testing.T) {
	f := newFixture(t, newWindowGate(100))

	w := f.do(http.MethodGet, "/api/auth/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	cookie := f.signUp(t)
	w = f.do(http.MethodGet, "/api/auth/me", "", func(r *http.Request) { r.AddCookie(cookie) })
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	user, _ := body["user"].(map[string]any)
	if user["email"] != "ada@example.edu" {
		t.Errorf("user email = %v, want ada@example.edu", user["email"])
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Error("password hash leaked in response")
	}
}

func TestAdminRoutesForbiddenForUsers(t *testing.T) {
	f := newFixture(t, newWindowGate(100))
	cookie := f.signUp(t)

	w := f.do(http.MethodGet, "/api/users", "", func(r *http.Request) { r.AddCookie(cookie) })
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestBookLifecycleAsAdmin(t *testing.T) {
	f := newFixture(t, newWindowGate(100))
	ctx := context.Background()
	adminCookie := f.seedAdminSession(t, ctx)

	create := `{"title":"SICP","author":"Abelson","genre":"CS","rating":5,"coverUrl":"https://x/c.png","coverColor":"#aabbcc","description":"Wizard book","totalCopies":2}`
	w := f.do(http.MethodPost, "/api/books/create", create, func(r *http.Request) { r.AddCookie(adminCookie) })
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	book, _ := body["book"].(map[string]any)
	id, _ := book["id"].(string)
	if id == "" {
		t.Fatal("expected a book id")
	}
	if book["availableCopies"] != float64(2) {
		t.Errorf("availableCopies = %v, want 2", book["availableCopies"])
	}

	// Catalog browsing is public.
	w = f.do(http.MethodGet, "/api/books?q=sicp", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	items, _ := decodeBody(t, w)["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}

	w = f.do(http.MethodGet, "/api/books/detail?id="+id, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("detail status = %d", w.Code)
	}

	w = f.do(http.MethodPost, "/api/books/delete", fmt.Sprintf(`{"id":%q}`, id),
		func(r *http.Request) { r.AddCookie(adminCookie) })
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body %s", w.Code, w.Body.String())
	}

	w = f.do(http.MethodGet, "/api/books/detail?id="+id, "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("detail after delete = %d, want 404", w.Code)
	}
}

// seedAdminSession inserts an approved admin and a session for it, bypassing
// the sign-up flow.
func (f *fixture) seedAdminSession(t *testing.T, ctx context.Context) *http.Cookie {
	t.Helper()
	admin := &domain.User{
		ID:        uuid.New(),
		FullName:  "The Librarian",
		Email:     "librarian@example.edu",
		Status:    domain.StatusApproved,
		Role:      domain.RoleAdmin,
		CreatedAt: time.Now().UTC(),
	}
	if err := f.users.Create(ctx, admin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	sessions := memory.NewSessionRepo(f.db)
	session := &domain.Session{
		Token:     "admin-session-token",
		UserID:    admin.ID,
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	if err := sessions.Create(ctx, session); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return &http.Cookie{Name: "session", Value: session.Token}
}

func TestBorrowFlowOverHTTP(t *testing.T) {
	f := newFixture(t, newWindowGate(100))
	ctx := context.Background()
	adminCookie := f.seedAdminSession(t, ctx)

	create := `{"title":"SICP","author":"Abelson","genre":"CS","rating":5,"coverUrl":"https://x/c.png","coverColor":"#aabbcc","description":"Wizard book","totalCopies":1}`
	w := f.do(http.MethodPost, "/api/books/create", create, func(r *http.Request) { r.AddCookie(adminCookie) })
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d", w.Code)
	}
	book, _ := decodeBody(t, w)["book"].(map[string]any)
	bookID, _ := book["id"].(string)

	// A pending self-registered user cannot borrow.
	userCookie := f.signUp(t)
	w = f.do(http.MethodPost, "/api/borrow", fmt.Sprintf(`{"bookId":%q}`, bookID),
		func(r *http.Request) { r.AddCookie(userCookie) })
	if w.Code != http.StatusConflict {
		t.Fatalf("pending borrow status = %d, want 409", w.Code)
	}

	// The admin account is approved and can.
	w = f.do(http.MethodPost, "/api/borrow", fmt.Sprintf(`{"bookId":%q}`, bookID),
		func(r *http.Request) { r.AddCookie(adminCookie) })
	if w.Code != http.StatusOK {
		t.Fatalf("borrow status = %d, body %s", w.Code, w.Body.String())
	}
	record, _ := decodeBody(t, w)["record"].(map[string]any)
	recordID, _ := record["id"].(string)
	if recordID == "" {
		t.Fatal("expected a record id")
	}

	// Last copy gone.
	w = f.do(http.MethodPost, "/api/borrow", fmt.Sprintf(`{"bookId":%q}`, bookID),
		func(r *http.Request) { r.AddCookie(adminCookie) })
	if w.Code != http.StatusConflict {
		t.Fatalf("second borrow status = %d, want 409", w.Code)
	}

	w = f.do(http.MethodGet, "/api/borrow/mine", "", func(r *http.Request) { r.AddCookie(adminCookie) })
	if w.Code != http.StatusOK {
		t.Fatalf("mine status = %d", w.Code)
	}
	items, _ := decodeBody(t, w)["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("got %d loans, want 1", len(items))
	}

	w = f.do(http.MethodPost, "/api/borrow/return", fmt.Sprintf(`{"recordId":%q}`, recordID),
		func(r *http.Request) { r.AddCookie(adminCookie) })
	if w.Code != http.StatusOK {
		t.Fatalf("return status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestUserStatusUpdate(t *testing.T) {
	f := newFixture(t, newWindowGate(100))
	ctx := context.Background()
	adminCookie := f.seedAdminSession(t, ctx)
	f.signUp(t)

	u, err := f.users.GetByEmail(ctx, "ada@example.edu")
	if err != nil || u == nil {
		t.Fatalf("lookup user: %v", err)
	}

	w := f.do(http.MethodPost, "/api/users/status",
		fmt.Sprintf(`{"id":%q,"status":"APPROVED"}`, u.ID),
		func(r *http.Request) { r.AddCookie(adminCookie) })
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	u, _ = f.users.GetByEmail(ctx, "ada@example.edu")
	if u.Status != domain.StatusApproved {
		t.Errorf("status = %q, want APPROVED", u.Status)
	}

	w = f.do(http.MethodPost, "/api/users/status",
		fmt.Sprintf(`{"id":%q,"status":"BOGUS"}`, u.ID),
		func(r *http.Request) { r.AddCookie(adminCookie) })
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bogus status = %d, want 400", w.Code)
	}
}

func TestUploadAuthEndpoint(t *testing.T) {
	f := newFixture(t, newWindowGate(100))
	cookie := f.signUp(t)

	w := f.do(http.MethodGet, "/api/media/upload-auth", "", func(r *http.Request) { r.AddCookie(cookie) })
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	for _, key := range []string{"token", "expire", "signature", "publicKey", "urlEndpoint"} {
		if body[key] == nil || body[key] == "" {
			t.Errorf("missing %q in response", key)
		}
	}

	// Signed credentials are not public.
	w = f.do(http.MethodGet, "/api/media/upload-auth", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", w.Code)
	}
}

func TestAuthConfigEndpoint(t *testing.T) {
	f := newFixture(t, newWindowGate(100))

	w := f.do(http.MethodGet, "/api/auth/config", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if decodeBody(t, w)["sso_enabled"] != false {
		t.Error("expected sso_enabled false without an issuer configured")
	}

	w = f.do(http.MethodPost, "/api/auth/config", "{}", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST status = %d, want 405", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t, newWindowGate(100))

	w := f.do(http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", w.Header().Get("Cache-Control"))
	}
}
