package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bookwise/internal/apperr"
	"bookwise/internal/domain"
)

const defaultLoanPeriod = 7 * 24 * time.Hour

// BorrowService encapsulates loan use cases.
type BorrowService struct {
	borrows    domain.BorrowRepository
	users      domain.UserRepository
	logger     *slog.Logger
	loanPeriod time.Duration
}

// NewBorrowService creates a BorrowService. A zero loanPeriod defaults to
// seven days.
func NewBorrowService(borrows domain.BorrowRepository, users domain.UserRepository, logger *slog.Logger, loanPeriod time.Duration) *BorrowService {
	if loanPeriod == 0 {
		loanPeriod = defaultLoanPeriod
	}
	return &BorrowService{
		borrows:    borrows,
		users:      users,
		logger:     logger,
		loanPeriod: loanPeriod,
	}
}

// Borrow loans one copy of a book to an approved user.
func (s *BorrowService) Borrow(ctx context.Context, userID, bookID uuid.UUID) (*domain.BorrowRecord, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "could not borrow book", err)
	}
	if user.Status != domain.StatusApproved {
		return nil, apperr.FailedPrecondition("account is not approved for borrowing")
	}

	now := time.Now().UTC()
	record := &domain.BorrowRecord{
		ID:         uuid.New(),
		UserID:     userID,
		BookID:     bookID,
		BorrowedAt: now,
		DueAt:      now.Add(s.loanPeriod),
		Status:     domain.BorrowStatusBorrowed,
		CreatedAt:  now,
	}

	if err := s.borrows.Borrow(ctx, record); err != nil {
		switch {
		case errors.Is(err, domain.ErrNoCopiesAvailable):
			return nil, apperr.FailedPrecondition("book is not available for borrowing")
		case errors.Is(err, domain.ErrNotFound):
			return nil, apperr.NotFound("book not found")
		}
		s.logger.Error("borrow failed", "user", userID, "book", bookID, "err", err)
		return nil, apperr.Wrap(apperr.CodeInternal, "could not borrow book", err)
	}
	return record, nil
}

// Return closes a loan. Only the borrowing user or an admin may return it.
func (s *BorrowService) Return(ctx context.Context, actor *domain.User, recordID uuid.UUID) (*domain.BorrowRecord, error) {
	record, err := s.borrows.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperr.NotFound("borrow record not found")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "could not return book", err)
	}
	if record.UserID != actor.ID && actor.Role != domain.RoleAdmin {
		return nil, apperr.Forbidden("cannot return another user's loan")
	}

	returned, err := s.borrows.Return(ctx, recordID, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyReturned):
			return nil, apperr.FailedPrecondition("book already returned")
		case errors.Is(err, domain.ErrNotFound):
			return nil, apperr.NotFound("borrow record not found")
		}
		s.logger.Error("return failed", "record", recordID, "err", err)
		return nil, apperr.Wrap(apperr.CodeInternal, "could not return book", err)
	}
	return returned, nil
}

// ListByUser returns a user's loans, newest first.
func (s *BorrowService) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.BorrowRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	records, err := s.borrows.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "could not list loans", err)
	}
	return records, nil
}

// ListAll returns all loans, newest first. Admin use.
func (s *BorrowService) ListAll(ctx context.Context, limit int) ([]domain.BorrowRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	records, err := s.borrows.ListAll(ctx, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "could not list loans", err)
	}
	return records, nil
}
