package blocks

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// Postgres SQLSTATE codes for serialisation failures and deadlocks.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// classifyConflict turns driver level "could not serialise" errors into a
// PositionConflictError so callers know a retry is safe.
func classifyConflict(pageID uuid.UUID, err error) error {
	if err == nil || !isSerializationError(err) {
		return err
	}
	return &PositionConflictError{PageID: pageID, Err: err}
}

func isSerializationError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}
