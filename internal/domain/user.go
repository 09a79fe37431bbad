// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus is the review state of a registered account.
type UserStatus string

// RoleName identifies the privilege level of an account.
type RoleName string

const (
	StatusPending  UserStatus = "PENDING"
	StatusApproved UserStatus = "APPROVED"
	StatusRejected UserStatus = "REJECTED"

	RoleUser  RoleName = "USER"
	RoleAdmin RoleName = "ADMIN"
)

// User represents a registered library member.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID             uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	FullName       string     `bun:"full_name,notnull" json:"fullName"`
	Email          string     `bun:"email,unique,notnull" json:"email"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	UniversityID   int64      `bun:"university_id,notnull" json:"universityId"`
	UniversityCard string     `bun:"university_card,notnull" json:"universityCard"`
	Status         UserStatus `bun:"status,notnull,default:'PENDING'" json:"status"`
	Role           RoleName   `bun:"role,notnull,default:'USER'" json:"role"`
	LastActivityAt time.Time  `bun:"last_activity_at,nullzero" json:"lastActivityAt"`
	CreatedAt      time.Time  `bun:"created_at,notnull" json:"createdAt"`
}

// Session represents an active user session.
type Session struct {
	bun.BaseModel `bun:"table:sessions"`

	Token     string    `bun:"token,pk" json:"-"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,notnull" json:"userId"`
	UserAgent string    `bun:"user_agent" json:"-"`
	IP        string    `bun:"ip" json:"-"`
	ExpiresAt time.Time `bun:"expires_at,notnull" json:"expiresAt"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// UserRepository defines the port for user persistence operations.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Create(ctx context.Context, user *User) error
	List(ctx context.Context, limit int) ([]User, error)
	SetStatus(ctx context.Context, id uuid.UUID, status UserStatus) error
	TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) error
}

// SessionRepository defines the port for session persistence operations.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}

// RateGate is the admission check consulted before the auth flows run.
// Allow reports whether the request identified by key is within quota;
// the check increments the underlying counter as a side effect.
type RateGate interface {
	Allow(ctx context.Context, key string) (bool, error)
}
