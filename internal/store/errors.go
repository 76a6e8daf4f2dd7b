package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Common store error types
var (
	// ErrNotFound is returned when a single-row lookup finds nothing
	ErrNotFound = errors.New("record not found")

	// ErrUnknownDriver is returned for an unsupported database driver name
	ErrUnknownDriver = errors.New("unknown database driver")

	// ErrMissingTable is returned when the posts or postmeta table does not
	// exist, usually because the table prefix is wrong
	ErrMissingTable = errors.New("table does not exist (check database.table_prefix)")

	// ErrPermission is returned when the database user may not read a table
	ErrPermission = errors.New("permission denied")
)

// ConvertDBError converts driver-specific errors to store errors. Unknown
// errors are returned unchanged.
func ConvertDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	// PostgreSQL via pgx
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01": // undefined_table
			return fmt.Errorf("%w: %s", ErrMissingTable, pgErr.Message)
		case "42501": // insufficient_privilege
			return fmt.Errorf("%w: %s", ErrPermission, pgErr.Message)
		}
	}

	// PostgreSQL via lib/pq
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "42P01":
			return fmt.Errorf("%w: %s", ErrMissingTable, pqErr.Message)
		case "42501":
			return fmt.Errorf("%w: %s", ErrPermission, pqErr.Message)
		}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1146: // ER_NO_SUCH_TABLE
			return fmt.Errorf("%w: %s", ErrMissingTable, myErr.Message)
		case 1142, 1044: // ER_TABLEACCESS_DENIED_ERROR, ER_DBACCESS_DENIED_ERROR
			return fmt.Errorf("%w: %s", ErrPermission, myErr.Message)
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if strings.Contains(liteErr.Error(), "no such table") {
			return fmt.Errorf("%w: %s", ErrMissingTable, liteErr.Error())
		}
	}

	return err
}
