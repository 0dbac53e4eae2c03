// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrVoteConflict marks a transient write conflict during a vote transaction:
// either a duplicate-key race on the (user, post) pair or a serialization
// failure. Callers re-run the read-decide-write sequence.
var ErrVoteConflict = errors.New("vote write conflict")

// Postgres error codes surfaced during concurrent vote writes.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	// sqlite wording, for the in-memory test database
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}
