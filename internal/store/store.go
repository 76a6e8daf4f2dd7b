// Package store reads content records and their metadata from a
// post/postmeta relational schema.
//
// Everything in this package is read-only. Callers own retries; a failed
// query is returned to them wrapped but otherwise untouched.
package store

import (
	"context"
	"fmt"

	"github.com/fieldradar/fieldradar/internal/meta"
)

// RecordID identifies a content record
type RecordID int64

// Record is a content record resolved for display
type Record struct {
	ID     RecordID `json:"id"`
	Type   string   `json:"type"`
	Title  string   `json:"title"`
	Slug   string   `json:"slug"`
	Status string   `json:"status"`
	GUID   string   `json:"guid"`
}

// DisplayTitle returns the title, or "(ID n)" when the record has none
func (r Record) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return fmt.Sprintf("(ID %d)", r.ID)
}

// Store is the storage collaborator the report pipeline reads from
type Store interface {
	// ContentTypes returns every distinct content type present, ascending
	ContentTypes(ctx context.Context) ([]string, error)

	// MetaKeys returns the distinct metadata keys stored on records of
	// contentType, ascending. Keys are returned unfiltered.
	MetaKeys(ctx context.Context, contentType string) ([]string, error)

	// CandidateIDs returns the IDs of records of contentType that have any
	// stored row for key, even an empty one, ascending.
	CandidateIDs(ctx context.Context, contentType, key string) ([]RecordID, error)

	// MetaValue returns the first stored value of key on record id
	MetaValue(ctx context.Context, id RecordID, key string) (meta.Value, error)

	// MetaValues returns the first stored value of key for each of ids.
	// IDs without a row are absent from the result.
	MetaValues(ctx context.Context, ids []RecordID, key string) (map[RecordID]meta.Value, error)

	// Records resolves ids to records of contentType in the order given.
	// IDs that do not resolve are skipped.
	Records(ctx context.Context, contentType string, ids []RecordID) ([]Record, error)

	// FieldLabels returns field name to label for custom field groups
	// assigned to contentType.
	FieldLabels(ctx context.Context, contentType string) (map[string]string, error)
}
