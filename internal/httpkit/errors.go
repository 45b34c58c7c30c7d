package httpkit

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the registry reacts to.
const (
	sqlStateUndefinedTable  = "42P01"
	sqlStateUniqueViolation = "23505"
)

// IsUndefinedTable reports a query against a table the schema lacks.
func IsUndefinedTable(err error) bool {
	return hasSQLState(err, sqlStateUndefinedTable)
}

// IsUniqueViolation reports a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return hasSQLState(err, sqlStateUniqueViolation)
}

func hasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
