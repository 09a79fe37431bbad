package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"bookwise/internal/domain"
)

// BookRepo implements catalog persistence on DB.
type BookRepo struct {
	db *DB
}

var _ domain.BookRepository = (*BookRepo)(nil)

// NewBookRepo wraps a DB as a BookRepository.
func NewBookRepo(db *DB) *BookRepo {
	return &BookRepo{db: db}
}

// Create inserts a new catalog entry.
func (r *BookRepo) Create(ctx context.Context, book *domain.Book) error {
	_, err := r.db.bun.NewInsert().Model(book).Exec(ctx)
	return errors.Wrap(err, "bookRepo.Create")
}

// Update rewrites all mutable columns of a catalog entry.
func (r *BookRepo) Update(ctx context.Context, book *domain.Book) error {
	res, err := r.db.bun.NewUpdate().
		Model(book).
		WherePK().
		ExcludeColumn("created_at").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "bookRepo.Update")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID retrieves a book by ID.
func (r *BookRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	book := new(domain.Book)
	err := r.db.bun.NewSelect().Model(book).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "bookRepo.GetByID")
	}
	return book, nil
}

// Delete removes a book from the catalog.
func (r *BookRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.bun.NewDelete().
		Model((*domain.Book)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "bookRepo.Delete")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListLatest returns the newest catalog entries.
func (r *BookRepo) ListLatest(ctx context.Context, limit int) ([]domain.Book, error) {
	var books []domain.Book
	err := r.db.bun.NewSelect().Model(&books).Order("created_at DESC").Limit(limit).Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "bookRepo.ListLatest")
	}
	return books, nil
}

// Search matches a case-insensitive substring against title, author and genre.
func (r *BookRepo) Search(ctx context.Context, query string, limit int) ([]domain.Book, error) {
	var books []domain.Book
	pattern := "%" + query + "%"
	err := r.db.bun.NewSelect().
		Model(&books).
		Where("title ILIKE ? OR author ILIKE ? OR genre ILIKE ?", pattern, pattern, pattern).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "bookRepo.Search")
	}
	return books, nil
}
