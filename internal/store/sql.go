package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fieldradar/fieldradar/internal/meta"
)

// DefaultTablePrefix is the platform's default table prefix
const DefaultTablePrefix = "wp_"

// Config holds database connection configuration
type Config struct {
	// Driver is a dialect name accepted by DialectFor
	Driver string

	// URL is the driver-specific data source name
	URL string

	// TablePrefix is prepended to the posts and postmeta table names
	TablePrefix string

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// ConnMaxLifetime is the maximum amount of time a connection may be reused
	ConnMaxLifetime time.Duration
}

// SQLStore implements Store over database/sql
type SQLStore struct {
	db       *sql.DB
	dialect  Dialect
	posts    string
	postmeta string
	logger   *zap.Logger
}

// Open connects to the configured database, applies pool settings and
// verifies the connection.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*SQLStore, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url cannot be empty")
	}

	db, err := sql.Open(dialect.DriverName, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return New(db, dialect, cfg.TablePrefix, logger), nil
}

// New wraps an existing connection
func New(db *sql.DB, dialect Dialect, tablePrefix string, logger *zap.Logger) *SQLStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLStore{
		db:       db,
		dialect:  dialect,
		posts:    dialect.Quote(tablePrefix + "posts"),
		postmeta: dialect.Quote(tablePrefix + "postmeta"),
		logger:   logger,
	}
}

// DB returns the underlying connection
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Close closes the underlying connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ContentTypes implements Store
func (s *SQLStore) ContentTypes(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT DISTINCT post_type FROM %s ORDER BY post_type ASC", s.posts)
	types, err := s.queryStrings(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list content types: %w", err)
	}
	return types, nil
}

// MetaKeys implements Store
func (s *SQLStore) MetaKeys(ctx context.Context, contentType string) ([]string, error) {
	query := fmt.Sprintf(
		"SELECT DISTINCT pm.meta_key FROM %s pm JOIN %s p ON pm.post_id = p.ID WHERE p.post_type = ? ORDER BY pm.meta_key ASC",
		s.postmeta, s.posts,
	)
	keys, err := s.queryStrings(ctx, query, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to list meta keys for %q: %w", contentType, err)
	}
	return keys, nil
}

// CandidateIDs implements Store
func (s *SQLStore) CandidateIDs(ctx context.Context, contentType, key string) ([]RecordID, error) {
	query := fmt.Sprintf(
		"SELECT DISTINCT pm.post_id FROM %s pm JOIN %s p ON pm.post_id = p.ID WHERE p.post_type = ? AND pm.meta_key = ? ORDER BY pm.post_id ASC",
		s.postmeta, s.posts,
	)

	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), contentType, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates for %q: %w", key, ConvertDBError(err))
	}
	defer rows.Close()

	ids := make([]RecordID, 0)
	for rows.Next() {
		var id RecordID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan candidate id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidates for %q: %w", key, ConvertDBError(err))
	}
	return ids, nil
}

// MetaValue implements Store. A NULL column decodes to Null; a missing row
// reads as empty text, matching the platform's single-value lookup.
func (s *SQLStore) MetaValue(ctx context.Context, id RecordID, key string) (meta.Value, error) {
	query := fmt.Sprintf(
		"SELECT meta_value FROM %s WHERE post_id = ? AND meta_key = ? ORDER BY meta_id ASC LIMIT 1",
		s.postmeta,
	)

	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(query), int64(id), key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return meta.Text(""), nil
		}
		return meta.Null(), fmt.Errorf("failed to read %q on record %d: %w", key, id, ConvertDBError(err))
	}
	return decodeColumn(raw), nil
}

// MetaValues implements Store
func (s *SQLStore) MetaValues(ctx context.Context, ids []RecordID, key string) (map[RecordID]meta.Value, error) {
	values := make(map[RecordID]meta.Value, len(ids))
	if len(ids) == 0 {
		return values, nil
	}

	in, inArgs := s.dialect.InClause("post_id", ids)
	query := fmt.Sprintf(
		"SELECT post_id, meta_value FROM %s WHERE meta_key = ? AND %s ORDER BY meta_id ASC",
		s.postmeta, in,
	)
	args := append([]interface{}{key}, inArgs...)

	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to batch read %q: %w", key, ConvertDBError(err))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  RecordID
			raw sql.NullString
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan meta value: %w", err)
		}
		if _, seen := values[id]; seen {
			continue
		}
		values[id] = decodeColumn(raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to batch read %q: %w", key, ConvertDBError(err))
	}
	return values, nil
}

// Records implements Store
func (s *SQLStore) Records(ctx context.Context, contentType string, ids []RecordID) ([]Record, error) {
	if len(ids) == 0 {
		return []Record{}, nil
	}

	in, inArgs := s.dialect.InClause("ID", ids)
	query := fmt.Sprintf(
		"SELECT ID, post_type, post_title, post_name, post_status, guid FROM %s WHERE post_type = ? AND %s",
		s.posts, in,
	)
	args := append([]interface{}{contentType}, inArgs...)

	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", ConvertDBError(err))
	}
	defer rows.Close()

	byID := make(map[RecordID]Record, len(ids))
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Type, &r.Title, &r.Slug, &r.Status, &r.GUID); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		byID[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load records: %w", ConvertDBError(err))
	}

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			s.logger.Debug("record did not resolve", zap.Int64("id", int64(id)), zap.String("type", contentType))
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

func (s *SQLStore) queryStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, ConvertDBError(err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v.String)
	}
	if err := rows.Err(); err != nil {
		return nil, ConvertDBError(err)
	}
	return out, nil
}

func decodeColumn(raw sql.NullString) meta.Value {
	if !raw.Valid {
		return meta.Null()
	}
	return meta.Decode(raw.String)
}
