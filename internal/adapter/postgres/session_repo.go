package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"bookwise/internal/domain"
)

// SessionRepo implements session persistence on DB.
type SessionRepo struct {
	db *DB
}

var _ domain.SessionRepository = (*SessionRepo)(nil)

// NewSessionRepo wraps a DB as a SessionRepository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create persists a new session.
func (r *SessionRepo) Create(ctx context.Context, session *domain.Session) error {
	_, err := r.db.bun.NewInsert().Model(session).Exec(ctx)
	return errors.Wrap(err, "sessionRepo.Create")
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	session := new(domain.Session)
	err := r.db.bun.NewSelect().Model(session).Where("token = ?", token).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "sessionRepo.GetByToken")
	}
	return session, nil
}

// Delete removes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.bun.NewDelete().
		Model((*domain.Session)(nil)).
		Where("token = ?", token).
		Exec(ctx)
	return errors.Wrap(err, "sessionRepo.Delete")
}

// DeleteExpired removes all sessions past their expiry.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.db.bun.NewDelete().
		Model((*domain.Session)(nil)).
		Where("expires_at < ?", time.Now().UTC()).
		Exec(ctx)
	return errors.Wrap(err, "sessionRepo.DeleteExpired")
}
