package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"bookwise/internal/domain"
)

// BorrowRepo implements loan persistence on DB.
type BorrowRepo struct {
	db *DB
}

var _ domain.BorrowRepository = (*BorrowRepo)(nil)

// NewBorrowRepo wraps a DB as a BorrowRepository.
func NewBorrowRepo(db *DB) *BorrowRepo {
	return &BorrowRepo{db: db}
}

// Borrow writes the loan record and decrements book availability in one
// transaction. The guarded UPDATE keeps available_copies from going negative
// when two borrowers race for the last copy.
func (r *BorrowRepo) Borrow(ctx context.Context, record *domain.BorrowRecord) error {
	err := r.db.bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*domain.Book)(nil)).
			Set("available_copies = available_copies - 1").
			Where("id = ? AND available_copies > 0", record.BookID).
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "decrement availability")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return domain.ErrNoCopiesAvailable
		}

		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return errors.Wrap(err, "insert borrow record")
		}
		return nil
	})
	if errors.Is(err, domain.ErrNoCopiesAvailable) {
		return domain.ErrNoCopiesAvailable
	}
	return errors.Wrap(err, "borrowRepo.Borrow")
}

// Return marks the record RETURNED and restores book availability in one
// transaction. The status guard makes a double return a no-op failure.
func (r *BorrowRepo) Return(ctx context.Context, recordID uuid.UUID, returnedAt time.Time) (*domain.BorrowRecord, error) {
	record := new(domain.BorrowRecord)
	err := r.db.bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().
			Model(record).
			Where("id = ?", recordID).
			For("UPDATE").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return errors.Wrap(err, "load borrow record")
		}
		if record.Status != domain.BorrowStatusBorrowed {
			return domain.ErrAlreadyReturned
		}

		at := returnedAt.UTC()
		record.Status = domain.BorrowStatusReturned
		record.ReturnedAt = &at
		if _, err := tx.NewUpdate().
			Model(record).
			WherePK().
			Column("status", "returned_at").
			Exec(ctx); err != nil {
			return errors.Wrap(err, "update borrow record")
		}

		if _, err := tx.NewUpdate().
			Model((*domain.Book)(nil)).
			Set("available_copies = available_copies + 1").
			Where("id = ?", record.BookID).
			Exec(ctx); err != nil {
			return errors.Wrap(err, "increment availability")
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.ErrNotFound
		case errors.Is(err, domain.ErrAlreadyReturned):
			return nil, domain.ErrAlreadyReturned
		}
		return nil, errors.Wrap(err, "borrowRepo.Return")
	}
	return record, nil
}

// GetByID retrieves a loan record by ID.
func (r *BorrowRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.BorrowRecord, error) {
	record := new(domain.BorrowRecord)
	err := r.db.bun.NewSelect().Model(record).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "borrowRepo.GetByID")
	}
	return record, nil
}

// ListByUser returns a user's loans, newest first.
func (r *BorrowRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.BorrowRecord, error) {
	var records []domain.BorrowRecord
	err := r.db.bun.NewSelect().
		Model(&records).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "borrowRepo.ListByUser")
	}
	return records, nil
}

// ListAll returns all loans, newest first.
func (r *BorrowRepo) ListAll(ctx context.Context, limit int) ([]domain.BorrowRecord, error) {
	var records []domain.BorrowRecord
	err := r.db.bun.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "borrowRepo.ListAll")
	}
	return records, nil
}
