package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"bookwise/internal/apperr"
	"bookwise/internal/domain"
)

// UserService encapsulates account administration use cases.
type UserService struct {
	users  domain.UserRepository
	logger *slog.Logger
}

// NewUserService creates a UserService backed by the given repository.
func NewUserService(users domain.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// List returns registered users, newest first.
func (s *UserService) List(ctx context.Context, limit int) ([]domain.User, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	users, err := s.users.List(ctx, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "could not list users", err)
	}
	return users, nil
}

// SetStatus moves a user to the given review status.
func (s *UserService) SetStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) error {
	switch status {
	case domain.StatusPending, domain.StatusApproved, domain.StatusRejected:
	default:
		return apperr.InvalidArg("unknown user status")
	}

	err := s.users.SetStatus(ctx, id, status)
	if errors.Is(err, domain.ErrNotFound) {
		return apperr.NotFound("user not found")
	}
	if err != nil {
		s.logger.Error("user status update failed", "id", id, "status", status, "err", err)
		return apperr.Wrap(apperr.CodeInternal, "could not update user", err)
	}
	return nil
}
