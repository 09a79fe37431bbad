// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bookwise/internal/apperr"
	"bookwise/internal/domain"
)

var (
	// ErrRateLimited indicates the admission gate denied the request.
	ErrRateLimited = apperr.RateLimited("too many requests")
	// ErrUserExists indicates a registration with an email that is taken.
	ErrUserExists = apperr.AlreadyExists("User already exists")
	// ErrInvalidCredentials indicates a wrong email or password.
	ErrInvalidCredentials = apperr.Unauthorized("invalid email or password")
	// ErrSessionNotFound indicates the session token is unknown.
	ErrSessionNotFound = apperr.Unauthorized("session not found")
	// ErrSessionExpired indicates the session has expired.
	ErrSessionExpired = apperr.Unauthorized("session expired")
)

const (
	defaultBcryptCost = 10
	defaultSessionTTL = 24 * time.Hour
)

// AuthConfig tunes credential hashing and session lifetime.
type AuthConfig struct {
	BcryptCost int
	SessionTTL time.Duration
}

// AuthService handles registration, sign-in and session management.
type AuthService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	gate     domain.RateGate
	logger   *slog.Logger

	bcryptCost int
	sessionTTL time.Duration
}

// NewAuthService creates an authentication service.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, gate domain.RateGate, logger *slog.Logger, cfg AuthConfig) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaultBcryptCost
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		gate:       gate,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
		sessionTTL: cfg.SessionTTL,
	}
}

// SignUpParams is the validated registration input.
type SignUpParams struct {
	FullName       string
	Email          string
	Password       string
	UniversityID   int64
	UniversityCard string
}

// SignUpResult reports the created account and, when the immediate sign-in
// succeeded, its session token. An empty token still means the registration
// itself went through.
type SignUpResult struct {
	User         *domain.User
	SessionToken string
}

// SessionMeta carries request metadata attached to new sessions.
type SessionMeta struct {
	UserAgent string
	IP        string
}

// SignUp registers a new account: admission gate, duplicate fast-path check,
// slow hash, insert, then an immediate sign-in that does not charge the gate
// a second time.
func (s *AuthService) SignUp(ctx context.Context, p SignUpParams, originKey string, meta SessionMeta) (*SignUpResult, error) {
	if err := s.admit(ctx, originKey); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, p.Email)
	if err != nil {
		s.logger.Error("signup: email lookup failed", "err", err)
		return nil, apperr.Wrap(apperr.CodeInternal, "Signup error", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.bcryptCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "Signup error", err)
	}

	user := &domain.User{
		ID:             uuid.New(),
		FullName:       p.FullName,
		Email:          p.Email,
		PasswordHash:   string(hash),
		UniversityID:   p.UniversityID,
		UniversityCard: p.UniversityCard,
		Status:         domain.StatusPending,
		Role:           domain.RoleUser,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The unique constraint is the authoritative duplicate guard; the
		// lookup above is only a fast path, so a race lands here.
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, ErrUserExists
		}
		s.logger.Error("signup: insert failed", "err", err)
		return nil, apperr.Wrap(apperr.CodeInternal, "Signup error", err)
	}

	result := &SignUpResult{User: user}

	token, err := s.establishSession(ctx, p.Email, p.Password, meta)
	if err != nil {
		// Registration already succeeded; a failed auto sign-in is not fatal.
		s.logger.Warn("signup: auto sign-in failed", "email", p.Email, "err", err)
		return result, nil
	}
	result.SessionToken = token
	return result, nil
}

// SignIn exchanges a credential pair for a session token, gated by the
// admission check.
func (s *AuthService) SignIn(ctx context.Context, email, password, originKey string, meta SessionMeta) (string, error) {
	if err := s.admit(ctx, originKey); err != nil {
		return "", err
	}
	return s.establishSession(ctx, email, password, meta)
}

// establishSession verifies credentials and persists a new session. It is the
// ungated core of SignIn, shared with the post-registration auto sign-in.
func (s *AuthService) establishSession(ctx context.Context, email, password string, meta SessionMeta) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("signin: email lookup failed", "err", err)
		return "", apperr.Wrap(apperr.CodeInternal, "Signin error", err)
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := generateToken()
	if err != nil {
		return "", apperr.Wrap(apperr.CodeInternal, "Signin error", err)
	}

	now := time.Now().UTC()
	session := &domain.Session{
		Token:     token,
		UserID:    user.ID,
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		s.logger.Error("signin: session create failed", "err", err)
		return "", apperr.Wrap(apperr.CodeInternal, "Signin error", err)
	}

	if err := s.users.TouchActivity(ctx, user.ID, now); err != nil {
		s.logger.Warn("signin: activity update failed", "err", err)
	}

	return token, nil
}

// SignInSSO creates a session for an identity already verified by the OIDC
// provider, auto-provisioning a pending account on first sight. SSO accounts
// carry no password hash and cannot use credential sign-in.
func (s *AuthService) SignInSSO(ctx context.Context, email, fullName string, meta SessionMeta) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("sso signin: email lookup failed", "err", err)
		return "", apperr.Wrap(apperr.CodeInternal, "Signin error", err)
	}
	if user == nil {
		user = &domain.User{
			ID:        uuid.New(),
			FullName:  fullName,
			Email:     email,
			Status:    domain.StatusPending,
			Role:      domain.RoleUser,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			// Lost a provisioning race; the other request's row wins.
			if errors.Is(err, domain.ErrDuplicateEmail) {
				if user, err = s.users.GetByEmail(ctx, email); err != nil || user == nil {
					return "", apperr.Wrap(apperr.CodeInternal, "Signin error", err)
				}
			} else {
				s.logger.Error("sso signin: provisioning failed", "err", err)
				return "", apperr.Wrap(apperr.CodeInternal, "Signin error", err)
			}
		}
	}

	token, err := generateToken()
	if err != nil {
		return "", apperr.Wrap(apperr.CodeInternal, "Signin error", err)
	}

	now := time.Now().UTC()
	session := &domain.Session{
		Token:     token,
		UserID:    user.ID,
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", apperr.Wrap(apperr.CodeInternal, "Signin error", err)
	}
	return token, nil
}

// SignOut invalidates a session.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ValidateSession checks a session token and returns its user. Expired
// sessions are deleted on sight.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.User, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil || session == nil {
		return nil, ErrSessionNotFound
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return user, nil
}

// admit consults the rate gate. Gate backend failures are reported as
// internal errors rather than silently admitting the request.
func (s *AuthService) admit(ctx context.Context, originKey string) error {
	ok, err := s.gate.Allow(ctx, originKey)
	if err != nil {
		s.logger.Error("rate gate check failed", "key", originKey, "err", err)
		return apperr.Wrap(apperr.CodeInternal, "Signin error", err)
	}
	if !ok {
		s.logger.Warn("rate gate denied request", "key", originKey)
		return ErrRateLimited
	}
	return nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
