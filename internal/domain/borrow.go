package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BorrowStatus tracks the lifecycle of a loan.
type BorrowStatus string

const (
	BorrowStatusBorrowed BorrowStatus = "BORROWED"
	BorrowStatusReturned BorrowStatus = "RETURNED"
)

// BorrowRecord represents a single loan of one copy of a book.
type BorrowRecord struct {
	bun.BaseModel `bun:"table:borrow_records"`

	ID         uuid.UUID    `bun:"id,pk,type:uuid" json:"id"`
	UserID     uuid.UUID    `bun:"user_id,type:uuid,notnull" json:"userId"`
	BookID     uuid.UUID    `bun:"book_id,type:uuid,notnull" json:"bookId"`
	BorrowedAt time.Time    `bun:"borrowed_at,notnull" json:"borrowedAt"`
	DueAt      time.Time    `bun:"due_at,notnull" json:"dueAt"`
	ReturnedAt *time.Time   `bun:"returned_at" json:"returnedAt,omitempty"`
	Status     BorrowStatus `bun:"status,notnull,default:'BORROWED'" json:"status"`
	CreatedAt  time.Time    `bun:"created_at,notnull" json:"createdAt"`
}

// BorrowRepository is the port for loan persistence. Borrow and Return are
// expected to adjust book availability atomically with the record write.
type BorrowRepository interface {
	Borrow(ctx context.Context, record *BorrowRecord) error
	Return(ctx context.Context, recordID uuid.UUID, returnedAt time.Time) (*BorrowRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*BorrowRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]BorrowRecord, error)
	ListAll(ctx context.Context, limit int) ([]BorrowRecord, error)
}
