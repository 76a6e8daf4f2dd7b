package storetest

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// Schema is a trimmed copy of the platform's posts and postmeta tables with
// the default wp_ prefix.
const Schema = `
CREATE TABLE wp_posts (
	ID INTEGER PRIMARY KEY,
	post_type TEXT NOT NULL DEFAULT 'post',
	post_title TEXT NOT NULL DEFAULT '',
	post_name TEXT NOT NULL DEFAULT '',
	post_status TEXT NOT NULL DEFAULT 'publish',
	post_content TEXT NOT NULL DEFAULT '',
	post_excerpt TEXT NOT NULL DEFAULT '',
	post_parent INTEGER NOT NULL DEFAULT 0,
	menu_order INTEGER NOT NULL DEFAULT 0,
	guid TEXT NOT NULL DEFAULT ''
);
CREATE TABLE wp_postmeta (
	meta_id INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id INTEGER NOT NULL DEFAULT 0,
	meta_key TEXT,
	meta_value TEXT
);
CREATE INDEX wp_postmeta_post_id ON wp_postmeta (post_id);
CREATE INDEX wp_postmeta_meta_key ON wp_postmeta (meta_key);
`

// NewSQLite creates a file-backed SQLite database with Schema applied. The
// database is closed when the test ends.
func NewSQLite(t testing.TB) *sql.DB {
	t.Helper()
	db, _ := NewSQLiteFile(t)
	return db
}

// NewSQLiteFile is NewSQLite that also returns the database file path, for
// code under test that opens its own connection.
func NewSQLiteFile(t testing.TB) (*sql.DB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "content.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(Schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db, path
}

// Post is a row inserted by InsertPost
type Post struct {
	ID        int64
	Type      string
	Title     string
	Name      string
	Status    string
	Content   string
	Excerpt   string
	Parent    int64
	MenuOrder int
}

// InsertPost inserts a posts row
func InsertPost(t testing.TB, db *sql.DB, p Post) {
	t.Helper()
	if p.Type == "" {
		p.Type = "post"
	}
	if p.Status == "" {
		p.Status = "publish"
	}
	_, err := db.Exec(
		`INSERT INTO wp_posts (ID, post_type, post_title, post_name, post_status, post_content, post_excerpt, post_parent, menu_order, guid)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Type, p.Title, p.Name, p.Status, p.Content, p.Excerpt, p.Parent, p.MenuOrder, "",
	)
	if err != nil {
		t.Fatalf("failed to insert post %d: %v", p.ID, err)
	}
}

// InsertMeta inserts a postmeta row. A nil value stores NULL.
func InsertMeta(t testing.TB, db *sql.DB, postID int64, key string, value *string) {
	t.Helper()
	var v interface{}
	if value != nil {
		v = *value
	}
	if _, err := db.Exec(
		"INSERT INTO wp_postmeta (post_id, meta_key, meta_value) VALUES (?, ?, ?)",
		postID, key, v,
	); err != nil {
		t.Fatalf("failed to insert meta %q on %d: %v", key, postID, err)
	}
}

// Str returns a pointer to s, for InsertMeta
func Str(s string) *string {
	return &s
}
