package adapters

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	// mysqlErrDuplicateEntry is MySQL error 1062: duplicate entry for a unique key.
	mysqlErrDuplicateEntry = 1062
	// pgUniqueViolation is the Postgres SQLSTATE for unique_violation.
	pgUniqueViolation = "23505"
)

// isDuplicateKey reports whether err is a unique-constraint violation from any supported driver.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	// SQLite without TranslateError
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
