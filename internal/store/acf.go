package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/fieldradar/fieldradar/internal/meta"
)

// Content types under which the custom-fields plugin stores its field
// group and field definitions.
const (
	FieldGroupType = "acf-field-group"
	FieldType      = "acf-field"
)

// FieldLabels implements Store. Field groups are read from the posts table;
// a group applies to contentType when one of its location rule sets names
// the type with "==" (or another type with "!="). Groups are visited in
// menu order and the first label seen for a field name wins.
func (s *SQLStore) FieldLabels(ctx context.Context, contentType string) (map[string]string, error) {
	groupQuery := fmt.Sprintf(
		"SELECT ID, post_content FROM %s WHERE post_type = ? AND post_status = ? ORDER BY menu_order ASC, post_title ASC",
		s.posts,
	)
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(groupQuery), FieldGroupType, "publish")
	if err != nil {
		return nil, fmt.Errorf("failed to query field groups: %w", ConvertDBError(err))
	}

	var groups []RecordID
	for rows.Next() {
		var (
			id      RecordID
			content sql.NullString
		)
		if err := rows.Scan(&id, &content); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan field group: %w", err)
		}
		if GroupTargets(meta.Decode(content.String), contentType) {
			groups = append(groups, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read field groups: %w", ConvertDBError(err))
	}
	rows.Close()

	labels := make(map[string]string)
	if len(groups) == 0 {
		return labels, nil
	}

	in, inArgs := s.dialect.InClause("post_parent", groups)
	fieldQuery := fmt.Sprintf(
		"SELECT post_parent, post_excerpt, post_title FROM %s WHERE post_type = ? AND post_status = ? AND %s ORDER BY menu_order ASC",
		s.posts, in,
	)
	args := append([]interface{}{FieldType, "publish"}, inArgs...)

	fieldRows, err := s.db.QueryContext(ctx, s.dialect.Rebind(fieldQuery), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fields: %w", ConvertDBError(err))
	}
	defer fieldRows.Close()

	type field struct{ name, label string }
	byGroup := make(map[RecordID][]field, len(groups))
	for fieldRows.Next() {
		var (
			parent      RecordID
			name, label string
		)
		if err := fieldRows.Scan(&parent, &name, &label); err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		byGroup[parent] = append(byGroup[parent], field{name: name, label: label})
	}
	if err := fieldRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fields: %w", ConvertDBError(err))
	}

	for _, g := range groups {
		for _, f := range byGroup[g] {
			if f.name == "" {
				continue
			}
			if _, ok := labels[f.name]; ok {
				continue
			}
			label := f.label
			if label == "" {
				label = f.name
			}
			labels[f.name] = label
		}
	}

	s.logger.Debug("resolved field labels",
		zap.String("type", contentType),
		zap.Int("groups", len(groups)),
		zap.Int("fields", len(labels)),
	)
	return labels, nil
}

// GroupTargets reports whether a decoded field group definition applies to
// contentType. Location is a list of alternative rule sets and every rule
// in a set must hold. Only post_type rules can be decided for a whole
// content type: other rules are assumed to hold, and a set without any
// post_type rule does not target a type.
func GroupTargets(group meta.Value, contentType string) bool {
	location, ok := group.Get("location")
	if !ok {
		return false
	}

	for _, set := range collection(location) {
		if setTargets(set, contentType) {
			return true
		}
	}
	return false
}

func setTargets(set meta.Value, contentType string) bool {
	typed := false
	for _, rule := range collection(set) {
		param, _ := stringField(rule, "param")
		if param != "post_type" {
			continue
		}
		typed = true

		operator, _ := stringField(rule, "operator")
		value, _ := stringField(rule, "value")
		switch operator {
		case "==":
			if value != contentType {
				return false
			}
		case "!=":
			if value == contentType {
				return false
			}
		default:
			return false
		}
	}
	return typed
}

func collection(v meta.Value) []meta.Value {
	switch v.Kind() {
	case meta.KindSequence:
		return v.Items()
	case meta.KindMapping:
		entries := v.Entries()
		out := make([]meta.Value, len(entries))
		for i, e := range entries {
			out[i] = e.Value
		}
		return out
	default:
		return nil
	}
}

func stringField(v meta.Value, key string) (string, bool) {
	f, ok := v.Get(key)
	if !ok {
		return "", false
	}
	return f.Str()
}
