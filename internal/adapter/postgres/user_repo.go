package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"bookwise/internal/domain"
)

// UserRepo implements user persistence on DB.
type UserRepo struct {
	db *DB
}

var _ domain.UserRepository = (*UserRepo)(nil)

// NewUserRepo wraps a DB as a UserRepository.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetByEmail retrieves a user by email. Missing users return nil, nil so the
// registration fast path can distinguish "absent" from a store failure.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user := new(domain.User)
	err := r.db.bun.NewSelect().Model(user).Where("email = ?", email).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "userRepo.GetByEmail")
	}
	return user, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user := new(domain.User)
	err := r.db.bun.NewSelect().Model(user).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "userRepo.GetByID")
	}
	return user, nil
}

// Create inserts a new user. A unique violation on email maps to
// domain.ErrDuplicateEmail so the store constraint stays the authoritative
// duplicate guard.
func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.bun.NewInsert().Model(user).Exec(ctx)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateEmail
	}
	if err != nil {
		return errors.Wrap(err, "userRepo.Create")
	}
	return nil
}

// List returns users ordered by registration time, newest first.
func (r *UserRepo) List(ctx context.Context, limit int) ([]domain.User, error) {
	var users []domain.User
	err := r.db.bun.NewSelect().Model(&users).Order("created_at DESC").Limit(limit).Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "userRepo.List")
	}
	return users, nil
}

// SetStatus updates the review status of a user.
func (r *UserRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) error {
	res, err := r.db.bun.NewUpdate().
		Model((*domain.User)(nil)).
		Set("status = ?", status).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "userRepo.SetStatus")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TouchActivity records the user's last activity timestamp.
func (r *UserRepo) TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.bun.NewUpdate().
		Model((*domain.User)(nil)).
		Set("last_activity_at = ?", at.UTC()).
		Where("id = ?", id).
		Exec(ctx)
	return errors.Wrap(err, "userRepo.TouchActivity")
}
