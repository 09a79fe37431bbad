package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"bookwise/internal/adapter/memory"
	"bookwise/internal/apperr"
	"bookwise/internal/domain"
)

type borrowFixture struct {
	svc   *BorrowService
	db    *memory.DB
	user  *domain.User
	admin *domain.User
	book  *domain.Book
}

func newBorrowFixture(t *testing.T, copies int) *borrowFixture {
	t.Helper()
	ctx := context.Background()
	db := memory.New()
	users := memory.NewUserRepo(db)
	books := memory.NewBookRepo(db)

	user := &domain.User{
		ID:        uuid.New(),
		FullName:  "Ada Lovelace",
		Email:     "ada@example.edu",
		Status:    domain.StatusApproved,
		Role:      domain.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	admin := &domain.User{
		ID:        uuid.New(),
		FullName:  "The Librarian",
		Email:     "admin@example.edu",
		Status:    domain.StatusApproved,
		Role:      domain.RoleAdmin,
		CreatedAt: time.Now().UTC(),
	}
	book := &domain.Book{
		ID:              uuid.New(),
		Title:           "SICP",
		TotalCopies:     copies,
		AvailableCopies: copies,
		CreatedAt:       time.Now().UTC(),
	}
	for _, u := range []*domain.User{user, admin} {
		if err := users.Create(ctx, u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	if err := books.Create(ctx, book); err != nil {
		t.Fatalf("seed book: %v", err)
	}

	return &borrowFixture{
		svc:   NewBorrowService(memory.NewBorrowRepo(db), users, discardLogger(), 0),
		db:    db,
		user:  user,
		admin: admin,
		book:  book,
	}
}

func TestBorrowSevenDayLoan(t *testing.T) {
	f := newBorrowFixture(t, 1)

	record, err := f.svc.Borrow(context.Background(), f.user.ID, f.book.ID)
	if err != nil {
		t.Fatalf("Borrow: %v", err)
	}
	if record.Status != domain.BorrowStatusBorrowed {
		t.Errorf("status = %q, want BORROWED", record.Status)
	}
	if got := record.DueAt.Sub(record.BorrowedAt); got != 7*24*time.Hour {
		t.Errorf("loan period = %v, want 168h", got)
	}
}

func TestBorrowRequiresApprovedAccount(t *testing.T) {
	f := newBorrowFixture(t, 1)
	ctx := context.Background()

	pending := &domain.User{
		ID:        uuid.New(),
		Email:     "new@example.edu",
		Status:    domain.StatusPending,
		Role:      domain.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	if err := memory.NewUserRepo(f.db).Create(ctx, pending); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	_, err := f.svc.Borrow(ctx, pending.ID, f.book.ID)
	if !apperr.IsCode(err, apperr.CodeFailedPrecondition) {
		t.Fatalf("err = %v, want failed-precondition", err)
	}
	if f.db.BorrowCount() != 0 {
		t.Errorf("borrow count = %d, want 0", f.db.BorrowCount())
	}
}

func TestBorrowNoCopiesAvailable(t *testing.T) {
	f := newBorrowFixture(t, 1)
	ctx := context.Background()

	if _, err := f.svc.Borrow(ctx, f.user.ID, f.book.ID); err != nil {
		t.Fatalf("first Borrow: %v", err)
	}

	_, err := f.svc.Borrow(ctx, f.admin.ID, f.book.ID)
	if !apperr.IsCode(err, apperr.CodeFailedPrecondition) {
		t.Fatalf("err = %v, want failed-precondition", err)
	}
	if f.db.BorrowCount() != 1 {
		t.Errorf("borrow count = %d, want 1", f.db.BorrowCount())
	}
}

func TestReturnRestoresAvailability(t *testing.T) {
	f := newBorrowFixture(t, 1)
	ctx := context.Background()

	record, err := f.svc.Borrow(ctx, f.user.ID, f.book.ID)
	if err != nil {
		t.Fatalf("Borrow: %v", err)
	}

	returned, err := f.svc.Return(ctx, f.user, record.ID)
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if returned.Status != domain.BorrowStatusReturned {
		t.Errorf("status = %q, want RETURNED", returned.Status)
	}
	if returned.ReturnedAt == nil {
		t.Error("expected ReturnedAt to be set")
	}

	// The copy is borrowable again.
	if _, err := f.svc.Borrow(ctx, f.admin.ID, f.book.ID); err != nil {
		t.Fatalf("re-borrow after return: %v", err)
	}
}

func TestReturnTwice(t *testing.T) {
	f := newBorrowFixture(t, 1)
	ctx := context.Background()

	record, err := f.svc.Borrow(ctx, f.user.ID, f.book.ID)
	if err != nil {
		t.Fatalf("Borrow: %v", err)
	}
	if _, err := f.svc.Return(ctx, f.user, record.ID); err != nil {
		t.Fatalf("first Return: %v", err)
	}

	_, err = f.svc.Return(ctx, f.user, record.ID)
	if !apperr.IsCode(err, apperr.CodeFailedPrecondition) {
		t.Fatalf("err = %v, want failed-precondition", err)
	}
}

func TestReturnOwnership(t *testing.T) {
	f := newBorrowFixture(t, 2)
	ctx := context.Background()

	record, err := f.svc.Borrow(ctx, f.user.ID, f.book.ID)
	if err != nil {
		t.Fatalf("Borrow: %v", err)
	}

	other := &domain.User{
		ID:        uuid.New(),
		Email:     "other@example.edu",
		Status:    domain.StatusApproved,
		Role:      domain.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	_, err = f.svc.Return(ctx, other, record.ID)
	if !apperr.IsCode(err, apperr.CodePermissionDenied) {
		t.Fatalf("err = %v, want permission-denied", err)
	}

	// An admin may return on the user's behalf.
	if _, err := f.svc.Return(ctx, f.admin, record.ID); err != nil {
		t.Fatalf("admin Return: %v", err)
	}
}

func TestListByUserScopesToOwner(t *testing.T) {
	f := newBorrowFixture(t, 2)
	ctx := context.Background()

	if _, err := f.svc.Borrow(ctx, f.user.ID, f.book.ID); err != nil {
		t.Fatalf("Borrow: %v", err)
	}
	if _, err := f.svc.Borrow(ctx, f.admin.ID, f.book.ID); err != nil {
		t.Fatalf("Borrow: %v", err)
	}

	mine, err := f.svc.ListByUser(ctx, f.user.ID, 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("got %d records, want 1", len(mine))
	}

	all, err := f.svc.ListAll(ctx, 10)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d records, want 2", len(all))
	}
}
