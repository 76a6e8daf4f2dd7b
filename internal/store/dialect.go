package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/mattn/go-sqlite3"    // registers the "sqlite3" driver
)

// Dialect captures the SQL differences between supported databases
type Dialect struct {
	// Name is the configuration name (mysql, postgres, sqlite3)
	Name string

	// DriverName is the database/sql driver the dialect opens with
	DriverName string

	// Numbered placeholders ($1, $2) instead of ?
	Numbered bool

	// ArrayParams binds ID lists as a single array parameter (= ANY($n))
	// instead of expanding an IN list
	ArrayParams bool
}

// Supported dialects
var (
	MySQL    = Dialect{Name: "mysql", DriverName: "mysql"}
	Postgres = Dialect{Name: "postgres", DriverName: "pgx", Numbered: true, ArrayParams: true}
	PQ       = Dialect{Name: "postgres", DriverName: "postgres", Numbered: true, ArrayParams: true}
	SQLite   = Dialect{Name: "sqlite3", DriverName: "sqlite3"}
)

// DialectFor maps a configured driver name to its dialect
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "pq":
		return PQ, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// Quote quotes a table identifier
func (d Dialect) Quote(ident string) string {
	switch d.Name {
	case "mysql":
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	case "postgres":
		return pq.QuoteIdentifier(ident)
	default:
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	}
}

// Rebind rewrites ? placeholders into the dialect's placeholder style
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// InClause returns the SQL fragment and arguments that restrict column to
// ids, using an array parameter where the dialect supports it.
func (d Dialect) InClause(column string, ids []RecordID) (string, []interface{}) {
	if d.ArrayParams {
		arr := make([]int64, len(ids))
		for i, id := range ids {
			arr[i] = int64(id)
		}
		return column + " = ANY(?)", []interface{}{pq.Array(arr)}
	}

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}
	return column + " IN (" + strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ")", args
}
