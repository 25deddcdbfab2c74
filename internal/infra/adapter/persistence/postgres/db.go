// Package postgres implements the repository interfaces against
// PostgreSQL using database/sql with the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
)

// DB is the minimal query surface the read-path repositories need.
// *sql.DB satisfies it directly; the serving binary passes a
// circuit-breaker wrapped connection instead.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}
