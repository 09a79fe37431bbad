// Package postgres implements the domain repositories on PostgreSQL through
// the bun ORM, with lib/pq as the driver.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"bookwise/internal/domain"
)

// pqUniqueViolation is the Postgres error code for unique constraint failures.
const pqUniqueViolation = "23505"

// DB wraps a bun.DB and carries the repository implementations.
type DB struct {
	bun *bun.DB
}

// Open connects to PostgreSQL, pings, and creates missing tables.
func Open(dsn string) (*DB, error) {
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(10)
	sqldb.SetMaxIdleConns(5)
	sqldb.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, err
	}

	d := &DB{bun: bun.NewDB(sqldb, pgdialect.New())}
	if err := d.migrate(ctx); err != nil {
		_ = d.bun.Close()
		return nil, err
	}
	return d, nil
}

// NewFromBun wraps an existing bun connection and runs migrations. Used by
// tests that manage the connection themselves.
func NewFromBun(ctx context.Context, bdb *bun.DB) (*DB, error) {
	d := &DB{bun: bdb}
	if err := d.migrate(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.bun.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	models := []any{
		(*domain.User)(nil),
		(*domain.Session)(nil),
		(*domain.Book)(nil),
		(*domain.BorrowRecord)(nil),
	}
	for _, model := range models {
		if _, err := d.bun.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return errors.Wrap(err, "migrate: create table")
		}
	}

	stmts := []string{
		"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);",
		"CREATE INDEX IF NOT EXISTS idx_books_created_at ON books(created_at);",
		"CREATE INDEX IF NOT EXISTS idx_borrow_records_user_id ON borrow_records(user_id);",
		"CREATE INDEX IF NOT EXISTS idx_borrow_records_book_id ON borrow_records(book_id);",
	}
	for _, stmt := range stmts {
		if _, err := d.bun.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrate: create index")
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}
