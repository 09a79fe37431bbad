package app

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"bookwise/internal/apperr"
	"bookwise/internal/domain"
)

const (
	maxCopies        = 10000
	defaultListLimit = 20
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// BookService encapsulates catalog use cases.
type BookService struct {
	repo   domain.BookRepository
	logger *slog.Logger
}

// NewBookService creates a BookService backed by the given repository.
func NewBookService(repo domain.BookRepository, logger *slog.Logger) *BookService {
	return &BookService{repo: repo, logger: logger}
}

// BookParams is the input for creating or updating a catalog entry.
type BookParams struct {
	Title       string
	Author      string
	Genre       string
	Rating      int
	CoverURL    string
	CoverColor  string
	Description string
	TotalCopies int
	VideoURL    string
	Summary     string
}

func (p BookParams) validate() error {
	switch {
	case p.Title == "":
		return apperr.InvalidArg("title is required")
	case p.Author == "":
		return apperr.InvalidArg("author is required")
	case p.Genre == "":
		return apperr.InvalidArg("genre is required")
	case p.Description == "":
		return apperr.InvalidArg("description is required")
	case p.Rating < 1 || p.Rating > 5:
		return apperr.InvalidArg("rating must be between 1 and 5")
	case p.TotalCopies < 1 || p.TotalCopies > maxCopies:
		return apperr.InvalidArg("total copies must be between 1 and 10000")
	case p.CoverURL == "":
		return apperr.InvalidArg("cover image is required")
	case !hexColorRe.MatchString(p.CoverColor):
		return apperr.InvalidArg("cover color must be a #rrggbb value")
	}
	return nil
}

// Create validates and stores a new book. All copies start available.
func (s *BookService) Create(ctx context.Context, p BookParams) (*domain.Book, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	book := &domain.Book{
		ID:              uuid.New(),
		Title:           p.Title,
		Author:          p.Author,
		Genre:           p.Genre,
		Rating:          p.Rating,
		CoverURL:        p.CoverURL,
		CoverColor:      p.CoverColor,
		Description:     p.Description,
		TotalCopies:     p.TotalCopies,
		AvailableCopies: p.TotalCopies,
		VideoURL:        p.VideoURL,
		Summary:         p.Summary,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, book); err != nil {
		s.logger.Error("book create failed", "title", p.Title, "err", err)
		return nil, apperr.Wrap(apperr.CodeInternal, "could not create book", err)
	}
	return book, nil
}

// Update validates and rewrites a book. Availability shifts by the change in
// total copies, floored at zero so outstanding loans stay accounted for.
func (s *BookService) Update(ctx context.Context, id uuid.UUID, p BookParams) (*domain.Book, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperr.NotFound("book not found")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "could not update book", err)
	}

	available := book.AvailableCopies + (p.TotalCopies - book.TotalCopies)
	if available < 0 {
		available = 0
	}

	book.Title = p.Title
	book.Author = p.Author
	book.Genre = p.Genre
	book.Rating = p.Rating
	book.CoverURL = p.CoverURL
	book.CoverColor = p.CoverColor
	book.Description = p.Description
	book.TotalCopies = p.TotalCopies
	book.AvailableCopies = available
	book.VideoURL = p.VideoURL
	book.Summary = p.Summary

	if err := s.repo.Update(ctx, book); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperr.NotFound("book not found")
		}
		s.logger.Error("book update failed", "id", id, "err", err)
		return nil, apperr.Wrap(apperr.CodeInternal, "could not update book", err)
	}
	return book, nil
}

// Get returns a single book.
func (s *BookService) Get(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperr.NotFound("book not found")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "could not load book", err)
	}
	return book, nil
}

// Delete removes a book from the catalog.
func (s *BookService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return apperr.NotFound("book not found")
	}
	if err != nil {
		s.logger.Error("book delete failed", "id", id, "err", err)
		return apperr.Wrap(apperr.CodeInternal, "could not delete book", err)
	}
	return nil
}

// ListLatest returns the newest catalog entries up to limit.
func (s *BookService) ListLatest(ctx context.Context, limit int) ([]domain.Book, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	books, err := s.repo.ListLatest(ctx, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "could not list books", err)
	}
	return books, nil
}

// Search returns books matching the query, newest first.
func (s *BookService) Search(ctx context.Context, query string, limit int) ([]domain.Book, error) {
	if query == "" {
		return s.ListLatest(ctx, limit)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	books, err := s.repo.Search(ctx, query, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "could not search books", err)
	}
	return books, nil
}
