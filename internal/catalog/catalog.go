// Package catalog lists the content types and metadata keys worth reporting
// on.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fieldradar/fieldradar/internal/store"
)

// DefaultDenylist holds the platform's internal bookkeeping keys. Other
// underscore-prefixed keys are kept.
var DefaultDenylist = []string{
	"_edit_lock",
	"_edit_last",
	"_wp_old_slug",
	"_thumbnail_id",
	"_wp_attached_file",
	"_wp_attachment_metadata",
	"_wp_attachment_backup",
	"_wp_trash_meta_time",
}

// InternalTypes are content types the platform and its plugins use for
// bookkeeping. They are hidden from ListContentTypes.
var InternalTypes = []string{
	"revision",
	"nav_menu_item",
	"custom_css",
	"customize_changeset",
	"oembed_cache",
	"user_request",
	"wp_block",
	"wp_template",
	"wp_template_part",
	"wp_global_styles",
	"wp_navigation",
	store.FieldGroupType,
	store.FieldType,
}

// Catalog reads key and type listings from a store
type Catalog struct {
	store    store.Store
	denylist map[string]struct{}
	logger   *zap.Logger
}

// New creates a catalog. extra keys are denied in addition to
// DefaultDenylist. Only underscore-prefixed keys can be denied; other extra
// entries are logged and ignored.
func New(s store.Store, logger *zap.Logger, extra ...string) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	deny := make(map[string]struct{}, len(DefaultDenylist)+len(extra))
	for _, k := range DefaultDenylist {
		deny[k] = struct{}{}
	}
	for _, k := range extra {
		if !strings.HasPrefix(k, "_") {
			logger.Warn("ignoring denylist entry without underscore prefix", zap.String("key", k))
			continue
		}
		deny[k] = struct{}{}
	}
	return &Catalog{store: s, denylist: deny, logger: logger}
}

// ListKeys returns the reportable metadata keys of contentType in ascending
// order. An unknown type yields an empty list.
func (c *Catalog) ListKeys(ctx context.Context, contentType string) ([]string, error) {
	raw, err := c.store.MetaKeys(ctx, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	keys := filterKeys(raw, c.denylist)
	c.logger.Debug("listed keys",
		zap.String("type", contentType),
		zap.Int("raw", len(raw)),
		zap.Int("kept", len(keys)),
	)
	return keys, nil
}

// ListContentTypes returns the content types present in the store, minus
// InternalTypes.
func (c *Catalog) ListContentTypes(ctx context.Context) ([]string, error) {
	types, err := c.store.ContentTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list content types: %w", err)
	}

	hidden := make(map[string]struct{}, len(InternalTypes))
	for _, t := range InternalTypes {
		hidden[t] = struct{}{}
	}

	out := make([]string, 0, len(types))
	for _, t := range types {
		if _, ok := hidden[t]; ok || t == "" {
			continue
		}
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

// FilterKeys drops the empty key and every underscore-prefixed key in
// denylist, then sorts and deduplicates the rest. Keys without the prefix
// are always kept.
func FilterKeys(raw []string, denylist []string) []string {
	deny := make(map[string]struct{}, len(denylist))
	for _, k := range denylist {
		deny[k] = struct{}{}
	}
	return filterKeys(raw, deny)
}

func filterKeys(raw []string, deny map[string]struct{}) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, k := range raw {
		if k == "" {
			continue
		}
		if _, ok := deny[k]; ok && strings.HasPrefix(k, "_") {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
