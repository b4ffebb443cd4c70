package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrOpenConnection      = errors.New("failed to open db connection")
	ErrParseConfig         = errors.New("failed to parse db config")
	ErrApplyMigrations     = errors.New("failed to apply migrations")
	ErrMigrationsPathUnset = errors.New("migrations path not provided")
	ErrMigrationsNotFound  = errors.New("migrations directory not found")
)

// IsNotFound detects pgx.ErrNoRows for consistent missing-row handling.
func IsNotFound(err error) bool {
	return err != nil && errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKey detects unique constraint violations (SQLSTATE 23505).
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
