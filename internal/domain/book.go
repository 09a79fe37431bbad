package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Book represents a catalog entry.
type Book struct {
	bun.BaseModel `bun:"table:books"`

	ID              uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Title           string    `bun:"title,notnull" json:"title"`
	Author          string    `bun:"author,notnull" json:"author"`
	Genre           string    `bun:"genre,notnull" json:"genre"`
	Rating          int       `bun:"rating,notnull" json:"rating"`
	CoverURL        string    `bun:"cover_url,notnull" json:"coverUrl"`
	CoverColor      string    `bun:"cover_color,notnull" json:"coverColor"`
	Description     string    `bun:"description,notnull" json:"description"`
	TotalCopies     int       `bun:"total_copies,notnull" json:"totalCopies"`
	AvailableCopies int       `bun:"available_copies,notnull" json:"availableCopies"`
	VideoURL        string    `bun:"video_url" json:"videoUrl"`
	Summary         string    `bun:"summary" json:"summary"`
	CreatedAt       time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// BookRepository is the port for catalog persistence.
type BookRepository interface {
	Create(ctx context.Context, book *Book) error
	Update(ctx context.Context, book *Book) error
	GetByID(ctx context.Context, id uuid.UUID) (*Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListLatest(ctx context.Context, limit int) ([]Book, error)
	Search(ctx context.Context, query string, limit int) ([]Book, error)
}
