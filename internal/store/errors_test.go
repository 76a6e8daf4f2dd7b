package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/fieldradar/fieldradar/internal/store"
)

func TestConvertDBError_Drivers(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"pgx undefined table", &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}, store.ErrMissingTable},
		{"pgx privilege", &pgconn.PgError{Code: "42501", Message: "denied"}, store.ErrPermission},
		{"pq undefined table", &pq.Error{Code: "42P01", Message: "relation does not exist"}, store.ErrMissingTable},
		{"pq privilege", &pq.Error{Code: "42501", Message: "denied"}, store.ErrPermission},
		{"mysql no such table", &mysql.MySQLError{Number: 1146, Message: "Table 'wp.wp_posts' doesn't exist"}, store.ErrMissingTable},
		{"mysql table access", &mysql.MySQLError{Number: 1142, Message: "SELECT command denied"}, store.ErrPermission},
		{"mysql db access", &mysql.MySQLError{Number: 1044, Message: "Access denied"}, store.ErrPermission},
		{"wrapped", fmt.Errorf("query: %w", &mysql.MySQLError{Number: 1146}), store.ErrMissingTable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.ConvertDBError(tt.err), tt.want)
		})
	}
}

func TestConvertDBError_UnknownCodePassesThrough(t *testing.T) {
	err := &mysql.MySQLError{Number: 1064, Message: "syntax"}
	got := store.ConvertDBError(err)
	assert.False(t, errors.Is(got, store.ErrMissingTable))
	assert.Equal(t, err, got)
}
