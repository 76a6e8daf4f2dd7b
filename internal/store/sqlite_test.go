package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldradar/fieldradar/internal/meta"
	"github.com/fieldradar/fieldradar/internal/store"
	"github.com/fieldradar/fieldradar/internal/store/storetest"
)

func seededSQLite(t *testing.T) *store.SQLStore {
	db := storetest.NewSQLite(t)

	storetest.InsertPost(t, db, storetest.Post{ID: 1, Title: "Hello"})
	storetest.InsertPost(t, db, storetest.Post{ID: 2, Title: ""})
	storetest.InsertPost(t, db, storetest.Post{ID: 3, Type: "page", Title: "About"})

	storetest.InsertMeta(t, db, 1, "subtitle", storetest.Str("First subtitle"))
	storetest.InsertMeta(t, db, 1, "subtitle", storetest.Str("shadowed"))
	storetest.InsertMeta(t, db, 2, "subtitle", storetest.Str("   "))
	storetest.InsertMeta(t, db, 2, "gallery", storetest.Str(`a:2:{i:0;s:0:"";i:1;a:1:{s:3:"url";s:5:"a.jpg";}}`))
	storetest.InsertMeta(t, db, 2, "_edit_lock", nil)
	storetest.InsertMeta(t, db, 3, "hero", storetest.Str("x"))

	return store.New(db, store.SQLite, "wp_", nil)
}

func TestSQLite_KeysAndCandidates(t *testing.T) {
	s := seededSQLite(t)
	ctx := context.Background()

	types, err := s.ContentTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"page", "post"}, types)

	keys, err := s.MetaKeys(ctx, "post")
	require.NoError(t, err)
	assert.Equal(t, []string{"_edit_lock", "gallery", "subtitle"}, keys)

	ids, err := s.CandidateIDs(ctx, "post", "subtitle")
	require.NoError(t, err)
	assert.Equal(t, []store.RecordID{1, 2}, ids)

	ids, err = s.CandidateIDs(ctx, "post", "hero")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSQLite_MetaValue(t *testing.T) {
	s := seededSQLite(t)
	ctx := context.Background()

	v, err := s.MetaValue(ctx, 1, "subtitle")
	require.NoError(t, err)
	text, _ := v.Str()
	assert.Equal(t, "First subtitle", text)

	v, err = s.MetaValue(ctx, 2, "subtitle")
	require.NoError(t, err)
	assert.False(t, meta.IsMeaningful(v))

	v, err = s.MetaValue(ctx, 2, "gallery")
	require.NoError(t, err)
	assert.Equal(t, meta.KindSequence, v.Kind())
	assert.True(t, meta.IsMeaningful(v))
	assert.Equal(t, "Collection(2)", meta.Summarize(v))

	v, err = s.MetaValue(ctx, 2, "_edit_lock")
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestSQLite_MetaValues(t *testing.T) {
	s := seededSQLite(t)

	values, err := s.MetaValues(context.Background(), []store.RecordID{1, 2, 99}, "subtitle")
	require.NoError(t, err)
	require.Len(t, values, 2)
	text, _ := values[1].Str()
	assert.Equal(t, "First subtitle", text)
}

func TestSQLite_Records(t *testing.T) {
	s := seededSQLite(t)

	records, err := s.Records(context.Background(), "post", []store.RecordID{2, 3, 1})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, store.RecordID(2), records[0].ID)
	assert.Equal(t, "(ID 2)", records[0].DisplayTitle())
	assert.Equal(t, "Hello", records[1].DisplayTitle())
}

func TestSQLite_MissingTable(t *testing.T) {
	db := storetest.NewSQLite(t)
	s := store.New(db, store.SQLite, "wrong_", nil)

	_, err := s.ContentTypes(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrMissingTable)
}

func TestSQLite_FieldLabels(t *testing.T) {
	db := storetest.NewSQLite(t)

	postGroup := `a:1:{s:8:"location";a:1:{i:0;a:1:{i:0;a:3:{s:5:"param";s:9:"post_type";s:8:"operator";s:2:"==";s:5:"value";s:4:"post";}}}}`
	pageGroup := `a:1:{s:8:"location";a:1:{i:0;a:1:{i:0;a:3:{s:5:"param";s:9:"post_type";s:8:"operator";s:2:"==";s:5:"value";s:4:"page";}}}}`

	storetest.InsertPost(t, db, storetest.Post{ID: 10, Type: store.FieldGroupType, Title: "Post fields", Content: postGroup, MenuOrder: 0})
	storetest.InsertPost(t, db, storetest.Post{ID: 11, Type: store.FieldGroupType, Title: "Page fields", Content: pageGroup})
	storetest.InsertPost(t, db, storetest.Post{ID: 12, Type: store.FieldGroupType, Title: "Draft", Content: postGroup, Status: "draft"})

	storetest.InsertPost(t, db, storetest.Post{ID: 20, Type: store.FieldType, Title: "Subtitle", Excerpt: "subtitle", Parent: 10, MenuOrder: 1})
	storetest.InsertPost(t, db, storetest.Post{ID: 21, Type: store.FieldType, Title: "", Excerpt: "gallery", Parent: 10, MenuOrder: 2})
	storetest.InsertPost(t, db, storetest.Post{ID: 22, Type: store.FieldType, Title: "Hero image", Excerpt: "hero", Parent: 11})
	storetest.InsertPost(t, db, storetest.Post{ID: 23, Type: store.FieldType, Title: "Drafted", Excerpt: "drafted", Parent: 12})

	s := store.New(db, store.SQLite, "wp_", nil)

	labels, err := s.FieldLabels(context.Background(), "post")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"subtitle": "Subtitle", "gallery": "gallery"}, labels)

	labels, err = s.FieldLabels(context.Background(), "event")
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestGroupTargets(t *testing.T) {
	rule := func(op, value string) meta.Value {
		return meta.Mapping(
			meta.Entry{Key: "param", Value: meta.Text("post_type")},
			meta.Entry{Key: "operator", Value: meta.Text(op)},
			meta.Entry{Key: "value", Value: meta.Text(value)},
		)
	}
	group := func(rules ...meta.Value) meta.Value {
		return meta.Mapping(meta.Entry{Key: "location", Value: meta.Sequence(meta.Sequence(rules...))})
	}
	groupOf := func(sets ...meta.Value) meta.Value {
		return meta.Mapping(meta.Entry{Key: "location", Value: meta.Sequence(sets...)})
	}
	other := func(param, op, value string) meta.Value {
		return meta.Mapping(
			meta.Entry{Key: "param", Value: meta.Text(param)},
			meta.Entry{Key: "operator", Value: meta.Text(op)},
			meta.Entry{Key: "value", Value: meta.Text(value)},
		)
	}

	assert.True(t, store.GroupTargets(group(rule("==", "post")), "post"))
	assert.False(t, store.GroupTargets(group(rule("==", "page")), "post"))
	assert.True(t, store.GroupTargets(group(rule("!=", "page")), "post"))
	assert.False(t, store.GroupTargets(group(rule("!=", "post")), "post"))
	assert.False(t, store.GroupTargets(meta.Text("not a group"), "post"))

	// every rule in a set must hold
	everythingElse := group(rule("!=", "post"), rule("!=", "page"))
	assert.False(t, store.GroupTargets(everythingElse, "post"))
	assert.False(t, store.GroupTargets(everythingElse, "page"))
	assert.True(t, store.GroupTargets(everythingElse, "event"))
	assert.False(t, store.GroupTargets(group(rule("==", "post"), rule("==", "page")), "post"))

	// any set may match
	either := groupOf(meta.Sequence(rule("==", "page")), meta.Sequence(rule("==", "post")))
	assert.True(t, store.GroupTargets(either, "post"))
	assert.False(t, store.GroupTargets(either, "event"))

	// rules on other params are assumed to hold but cannot target alone
	assert.True(t, store.GroupTargets(group(rule("==", "post"), other("post_template", "==", "default")), "post"))
	assert.False(t, store.GroupTargets(group(other("user_role", "==", "administrator")), "post"))
	assert.False(t, store.GroupTargets(group(rule("contains", "post")), "post"))
}
