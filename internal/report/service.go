// Package report composes the key catalog, the record finder and the
// paginator into the views an operator asks for.
package report

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fieldradar/fieldradar/internal/catalog"
	"github.com/fieldradar/fieldradar/internal/finder"
	"github.com/fieldradar/fieldradar/internal/meta"
	"github.com/fieldradar/fieldradar/internal/paginate"
	"github.com/fieldradar/fieldradar/internal/store"
)

// KeyUsage is one row of the key table
type KeyUsage struct {
	Key       string `json:"key"`
	Label     string `json:"label,omitempty"`
	UsedCount int    `json:"used_count"`
}

// Overview is the content type picker and key table
type Overview struct {
	ContentTypes []string   `json:"content_types"`
	ContentType  string     `json:"content_type"`
	Keys         []KeyUsage `json:"keys"`
}

// PostSummary is a record together with a summary of its value
type PostSummary struct {
	store.Record
	Summary string `json:"summary"`
}

// PostList lists every record using a field
type PostList struct {
	ContentType string        `json:"content_type"`
	Key         string        `json:"key"`
	Posts       []PostSummary `json:"posts"`
	// NoCandidates is true when no record stores the key at all
	NoCandidates bool `json:"no_candidates"`
	Empty        bool `json:"empty"`
}

// PostPage is one page of records using a metadata key
type PostPage struct {
	ContentType string          `json:"content_type"`
	Key         string          `json:"key"`
	Page        int             `json:"page"`
	PerPage     int             `json:"per_page"`
	TotalPages  int             `json:"total_pages"`
	TotalCount  int             `json:"total_count"`
	Records     []store.Record  `json:"records"`
	Links       *paginate.Links `json:"links,omitempty"`
	// Empty is true when no record has a meaningful value for the key
	Empty bool `json:"empty"`
}

// Report is the full admin view for one request
type Report struct {
	Request  Request   `json:"request"`
	Overview *Overview `json:"overview"`
	Posts    *PostList `json:"show_posts,omitempty"`
	Meta     *PostPage `json:"show_meta,omitempty"`
	// Permalink is the query string that reproduces this view, with the
	// page number as served
	Permalink string `json:"permalink"`
}

// Service answers report requests. It holds no per-request state.
type Service struct {
	store   store.Store
	catalog *catalog.Catalog
	finder  *finder.Finder
	logger  *zap.Logger
}

// NewService creates a report service
func NewService(s store.Store, c *catalog.Catalog, f *finder.Finder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, catalog: c, finder: f, logger: logger}
}

// ContentTypes returns the content types an operator can pick
func (s *Service) ContentTypes(ctx context.Context) ([]string, error) {
	return s.catalog.ListContentTypes(ctx)
}

// Keys returns the key table for contentType: every reportable key with its
// field label and the number of records using it meaningfully.
func (s *Service) Keys(ctx context.Context, contentType string) ([]KeyUsage, error) {
	keys, err := s.catalog.ListKeys(ctx, contentType)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []KeyUsage{}, nil
	}

	labels, err := s.store.FieldLabels(ctx, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to load field labels: %w", err)
	}

	rows := make([]KeyUsage, 0, len(keys))
	for _, k := range keys {
		n, err := s.finder.CountUsed(ctx, contentType, k)
		if err != nil {
			return nil, err
		}
		rows = append(rows, KeyUsage{Key: k, Label: labels[k], UsedCount: n})
	}
	return rows, nil
}

// Overview returns the content types and, when a type was selected, its
// key table.
func (s *Service) Overview(ctx context.Context, req Request) (*Overview, error) {
	types, err := s.ContentTypes(ctx)
	if err != nil {
		return nil, err
	}

	o := &Overview{ContentTypes: types, ContentType: req.ContentType, Keys: []KeyUsage{}}
	if !req.TypeSelected {
		return o, nil
	}

	o.Keys, err = s.Keys(ctx, req.ContentType)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// ShowPosts lists every record of contentType whose value for key is
// meaningful, each with a summary of that value.
func (s *Service) ShowPosts(ctx context.Context, contentType, key string) (*PostList, error) {
	list := &PostList{ContentType: contentType, Key: key, Posts: []PostSummary{}}

	candidates, err := s.store.CandidateIDs(ctx, contentType, key)
	if err != nil {
		return nil, fmt.Errorf("failed to find candidates for %q: %w", key, err)
	}
	if len(candidates) == 0 {
		list.NoCandidates = true
		list.Empty = true
		return list, nil
	}

	used, err := s.finder.Filter(ctx, candidates, key)
	if err != nil {
		return nil, err
	}
	if len(used) == 0 {
		list.Empty = true
		return list, nil
	}

	records, err := s.store.Records(ctx, contentType, used)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	values, err := s.store.MetaValues(ctx, used, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read values for %q: %w", key, err)
	}

	policy := s.finder.Policy()
	for _, r := range records {
		v, ok := values[r.ID]
		if !ok {
			v = meta.Text("")
		}
		list.Posts = append(list.Posts, PostSummary{Record: r, Summary: policy.Summarize(v)})
	}
	list.Empty = len(list.Posts) == 0
	return list, nil
}

// ShowMeta returns one page of records of contentType whose value for key
// is meaningful. A page past the end is clamped to the last page. When no
// record qualifies the result has Empty set and no records.
func (s *Service) ShowMeta(ctx context.Context, contentType, key string, page, perPage int) (*PostPage, error) {
	used, err := s.finder.FindUsed(ctx, contentType, key)
	if err != nil {
		return nil, err
	}

	p, ok := paginate.Paginate(used, perPage, page)
	if !ok {
		s.logger.Debug("no meaningful values", zap.String("type", contentType), zap.String("key", key))
		return &PostPage{ContentType: contentType, Key: key, Records: []store.Record{}, Empty: true}, nil
	}

	records, err := s.store.Records(ctx, contentType, p.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	links := p.Links()
	return &PostPage{
		ContentType: contentType,
		Key:         key,
		Page:        p.Page,
		PerPage:     p.PerPage,
		TotalPages:  p.TotalPages,
		TotalCount:  p.TotalCount,
		Records:     records,
		Links:       &links,
	}, nil
}

// Run answers a full request: the overview plus the drill-down its action
// selects. An action without its key parameter is ignored.
func (s *Service) Run(ctx context.Context, req Request) (*Report, error) {
	overview, err := s.Overview(ctx, req)
	if err != nil {
		return nil, err
	}
	rep := &Report{Request: req, Overview: overview}

	switch {
	case req.Action == ActionShowPosts && req.Field != "":
		rep.Posts, err = s.ShowPosts(ctx, req.ContentType, req.Field)
	case req.Action == ActionShowMeta && req.MetaKey != "":
		rep.Meta, err = s.ShowMeta(ctx, req.ContentType, req.MetaKey, req.Page, req.PerPage)
	}
	if err != nil {
		return nil, err
	}

	link := req
	if rep.Meta != nil && !rep.Meta.Empty {
		link.Page = rep.Meta.Page
	}
	rep.Permalink = "?" + link.Query().Encode()
	return rep, nil
}
