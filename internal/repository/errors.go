package repository

import (
	"database/sql"
	"errors"
	"log/slog"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when no row matches within the caller's tenant
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique or foreign key constraint rejects a write
	ErrConflict = errors.New("record conflicts with existing data")
	// ErrFrozen is returned when a rating targets an assessment that is no longer open
	ErrFrozen = errors.New("assessment no longer accepts ratings")
	// ErrNothingRated is returned when completing an assessment without a non-zero rating
	ErrNothingRated = errors.New("assessment has no rated competency")
)

// Postgres error codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// translate maps driver errors onto the package sentinels, leaving others untouched
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation, pgCheckViolation:
			return ErrConflict
		}
	}
	return err
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("Failed to close rows", "error", err)
	}
}

// requireAffected turns an update or delete that touched no rows into ErrNotFound
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
