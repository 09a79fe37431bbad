// Package memory implements in-memory repositories for development and testing.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookwise/internal/domain"
)

// DB holds the shared in-process state behind the repository types.
type DB struct {
	mu       sync.Mutex
	users    []*domain.User
	sessions map[string]*domain.Session
	books    []*domain.Book
	borrows  []*domain.BorrowRecord
}

// New creates an empty in-memory database.
func New() *DB {
	return &DB{
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*UserRepo)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)
var _ domain.BookRepository = (*BookRepo)(nil)
var _ domain.BorrowRepository = (*BorrowRepo)(nil)

// UserCount returns the number of stored users. Test helper.
func (db *DB) UserCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users)
}

// BorrowCount returns the number of stored loan records. Test helper.
func (db *DB) BorrowCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.borrows)
}

// --- UserRepository ---

// UserRepo implements user persistence on DB.
type UserRepo struct {
	db *DB
}

// NewUserRepo wraps a DB as a UserRepository.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetByEmail retrieves a user by email, nil when absent.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Create inserts a new user, enforcing email uniqueness like the store would.
func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	cp := *user
	r.db.users = append(r.db.users, &cp)
	return nil
}

// List returns users newest first.
func (r *UserRepo) List(ctx context.Context, limit int) ([]domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := make([]domain.User, 0, len(r.db.users))
	for _, u := range r.db.users {
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// SetStatus updates the review status of a user.
func (r *UserRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.ID == id {
			u.Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

// TouchActivity records the user's last activity timestamp.
func (r *UserRepo) TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.ID == id {
			u.LastActivityAt = at.UTC()
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- SessionRepository ---

// SessionRepo implements session persistence on DB.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps a DB as a SessionRepository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create persists a new session.
func (r *SessionRepo) Create(ctx context.Context, session *domain.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cp := *session
	r.db.sessions[session.Token] = &cp
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

// Delete removes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired removes all sessions past their expiry.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := time.Now()
	for token, s := range r.db.sessions {
		if now.After(s.ExpiresAt) {
			delete(r.db.sessions, token)
		}
	}
	return nil
}

// --- BookRepository ---

// BookRepo implements catalog persistence on DB.
type BookRepo struct {
	db *DB
}

// NewBookRepo wraps a DB as a BookRepository.
func NewBookRepo(db *DB) *BookRepo {
	return &BookRepo{db: db}
}

func (db *DB) findBook(id uuid.UUID) *domain.Book {
	for _, b := range db.books {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// Create inserts a new catalog entry.
func (r *BookRepo) Create(ctx context.Context, book *domain.Book) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cp := *book
	r.db.books = append(r.db.books, &cp)
	return nil
}

// Update rewrites a catalog entry, preserving its creation time.
func (r *BookRepo) Update(ctx context.Context, book *domain.Book) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing := r.db.findBook(book.ID)
	if existing == nil {
		return domain.ErrNotFound
	}
	created := existing.CreatedAt
	*existing = *book
	existing.CreatedAt = created
	return nil
}

// GetByID retrieves a book by ID.
func (r *BookRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	b := r.db.findBook(id)
	if b == nil {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

// Delete removes a book.
func (r *BookRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for i, b := range r.db.books {
		if b.ID == id {
			r.db.books = append(r.db.books[:i], r.db.books[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// ListLatest returns the newest books.
func (r *BookRepo) ListLatest(ctx context.Context, limit int) ([]domain.Book, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := make([]domain.Book, 0, len(r.db.books))
	for _, b := range r.db.books {
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Search matches a case-insensitive substring against title, author and genre.
func (r *BookRepo) Search(ctx context.Context, query string, limit int) ([]domain.Book, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	q := strings.ToLower(query)
	result := make([]domain.Book, 0)
	for _, b := range r.db.books {
		if strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Author), q) ||
			strings.Contains(strings.ToLower(b.Genre), q) {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// --- BorrowRepository ---

// BorrowRepo implements loan persistence on DB.
type BorrowRepo struct {
	db *DB
}

// NewBorrowRepo wraps a DB as a BorrowRepository.
func NewBorrowRepo(db *DB) *BorrowRepo {
	return &BorrowRepo{db: db}
}

// Borrow decrements availability and stores the record under one lock,
// mirroring the transactional guarantee of the Postgres adapter.
func (r *BorrowRepo) Borrow(ctx context.Context, record *domain.BorrowRecord) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	book := r.db.findBook(record.BookID)
	if book == nil {
		return domain.ErrNotFound
	}
	if book.AvailableCopies <= 0 {
		return domain.ErrNoCopiesAvailable
	}
	book.AvailableCopies--

	cp := *record
	r.db.borrows = append(r.db.borrows, &cp)
	return nil
}

// Return marks a record RETURNED and restores availability.
func (r *BorrowRepo) Return(ctx context.Context, recordID uuid.UUID, returnedAt time.Time) (*domain.BorrowRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, rec := range r.db.borrows {
		if rec.ID != recordID {
			continue
		}
		if rec.Status != domain.BorrowStatusBorrowed {
			return nil, domain.ErrAlreadyReturned
		}
		at := returnedAt.UTC()
		rec.Status = domain.BorrowStatusReturned
		rec.ReturnedAt = &at
		if book := r.db.findBook(rec.BookID); book != nil {
			book.AvailableCopies++
		}
		cp := *rec
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

// GetByID retrieves a loan record by ID.
func (r *BorrowRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.BorrowRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, rec := range r.db.borrows {
		if rec.ID == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListByUser returns a user's loans, newest first.
func (r *BorrowRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.BorrowRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := make([]domain.BorrowRecord, 0)
	for _, rec := range r.db.borrows {
		if rec.UserID == userID {
			result = append(result, *rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListAll returns all loans, newest first.
func (r *BorrowRepo) ListAll(ctx context.Context, limit int) ([]domain.BorrowRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := make([]domain.BorrowRecord, 0, len(r.db.borrows))
	for _, rec := range r.db.borrows {
		result = append(result, *rec)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
