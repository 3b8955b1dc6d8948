// Package store provides Postgres access for TrackShare rows.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/samhotchkiss/trackshare/internal/models"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrInvalidInput is returned when a required argument is missing.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotConfigured is returned when DATABASE_URL is empty.
	ErrNotConfigured = errors.New("DATABASE_URL is not set")
)

const (
	defaultMaxOpenConns    = 10
	defaultConnMaxLifetime = 30 * time.Minute
)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	if databaseURL == "" {
		return nil, ErrNotConfigured
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Querier is an interface for database query execution.
// Both *sql.DB, *sql.Conn, and *sql.Tx implement this interface.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// nullableString converts a *string to a sql-compatible value.
func nullableString(value *string) interface{} {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return trimmed
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

// appendDateRange adds inclusive created_at bounds to a condition list.
func appendDateRange(conditions []string, args []interface{}, column string, r models.DateRange) ([]string, []interface{}) {
	if r.Start != nil {
		args = append(args, *r.Start)
		conditions = append(conditions, fmt.Sprintf("%s >= $%d", column, len(args)))
	}
	if r.End != nil {
		args = append(args, *r.End)
		conditions = append(conditions, fmt.Sprintf("%s <= $%d", column, len(args)))
	}
	return conditions, args
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return nil
}

func countRows(ctx context.Context, q Querier, query string, args []interface{}) (int, error) {
	var total int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
