package database

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrNoRows is the driver-neutral "row not found" sentinel.
var ErrNoRows = errors.New("no rows in result set")

// IsNoRows reports whether err means an expected row was absent, across
// pgx, database/sql, and this package's own sentinel.
func IsNoRows(err error) bool {
	return err != nil &&
		(errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) || errors.Is(err, ErrNoRows))
}
