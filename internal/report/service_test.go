package report

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldradar/fieldradar/internal/catalog"
	"github.com/fieldradar/fieldradar/internal/finder"
	"github.com/fieldradar/fieldradar/internal/meta"
	"github.com/fieldradar/fieldradar/internal/store"
	"github.com/fieldradar/fieldradar/internal/store/storetest"
)

func newService(m *storetest.Memory) *Service {
	return NewService(m, catalog.New(m, nil), finder.New(m, finder.Options{Mode: finder.Batch}), nil)
}

// seed builds 100 posts where IDs 1..60 carry a real subtitle and the rest
// carry whitespace, plus a page and some internal rows.
func seed() *storetest.Memory {
	m := storetest.NewMemory()
	for i := 1; i <= 100; i++ {
		id := store.RecordID(i)
		m.AddRecord(store.Record{ID: id, Type: "post", Title: fmt.Sprintf("Post %d", i)})
		if i <= 60 {
			m.AddMeta(id, "subtitle", meta.Text(fmt.Sprintf("A subtitle for post number %d", i)))
		} else {
			m.AddMeta(id, "subtitle", meta.Text("  "))
		}
	}
	m.AddMeta(1, "_edit_lock", meta.Text("1700000000:1"))
	m.AddMeta(2, "gallery", meta.Sequence(meta.Text("a.jpg"), meta.Text("b.jpg"), meta.Text("c.jpg")))
	m.AddMeta(3, "gallery", meta.Sequence())
	m.AddRecord(store.Record{ID: 200, Type: "page", Title: "About"})
	m.AddMeta(200, "hero", meta.Text("x"))
	m.SetLabel("post", "subtitle", "Subtitle")
	return m
}

func TestService_Keys(t *testing.T) {
	s := newService(seed())

	rows, err := s.Keys(context.Background(), "post")
	require.NoError(t, err)
	assert.Equal(t, []KeyUsage{
		{Key: "gallery", UsedCount: 1},
		{Key: "subtitle", Label: "Subtitle", UsedCount: 60},
	}, rows)
}

func TestService_Keys_UnknownType(t *testing.T) {
	s := newService(seed())

	rows, err := s.Keys(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestService_Overview(t *testing.T) {
	s := newService(seed())

	o, err := s.Overview(context.Background(), Request{ContentType: "post"})
	require.NoError(t, err)
	assert.Equal(t, []string{"page", "post"}, o.ContentTypes)
	assert.Empty(t, o.Keys)

	o, err = s.Overview(context.Background(), Request{ContentType: "page", TypeSelected: true})
	require.NoError(t, err)
	assert.Equal(t, []KeyUsage{{Key: "hero", UsedCount: 1}}, o.Keys)
}

func TestService_ShowMeta(t *testing.T) {
	s := newService(seed())

	page, err := s.ShowMeta(context.Background(), "post", "subtitle", 2, 25)
	require.NoError(t, err)
	assert.False(t, page.Empty)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 60, page.TotalCount)
	require.Len(t, page.Records, 25)
	assert.Equal(t, store.RecordID(26), page.Records[0].ID)
	assert.Equal(t, store.RecordID(50), page.Records[24].ID)
	assert.Equal(t, 1, page.Links.Prev)
	assert.Equal(t, 3, page.Links.Next)
}

func TestService_ShowMeta_ClampsPastEnd(t *testing.T) {
	s := newService(seed())

	page, err := s.ShowMeta(context.Background(), "post", "subtitle", 9, 25)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Page)
	require.Len(t, page.Records, 10)
	assert.Equal(t, store.RecordID(51), page.Records[0].ID)
}

func TestService_ShowMeta_Empty(t *testing.T) {
	s := newService(seed())

	page, err := s.ShowMeta(context.Background(), "post", "missing", 1, 20)
	require.NoError(t, err)
	assert.True(t, page.Empty)
	assert.Empty(t, page.Records)
	assert.Nil(t, page.Links)
}

func TestService_ShowMeta_SkipsUnresolvedRecords(t *testing.T) {
	m := seed()
	m.RemoveRecord(27)
	s := newService(m)

	page, err := s.ShowMeta(context.Background(), "post", "subtitle", 2, 25)
	require.NoError(t, err)
	assert.Len(t, page.Records, 24)
	for _, r := range page.Records {
		assert.NotEqual(t, store.RecordID(27), r.ID)
	}
}

func TestService_ShowPosts(t *testing.T) {
	s := newService(seed())

	list, err := s.ShowPosts(context.Background(), "post", "gallery")
	require.NoError(t, err)
	assert.False(t, list.Empty)
	require.Len(t, list.Posts, 1)
	assert.Equal(t, store.RecordID(2), list.Posts[0].ID)
	assert.Equal(t, "Collection(3)", list.Posts[0].Summary)

	list, err = s.ShowPosts(context.Background(), "post", "subtitle")
	require.NoError(t, err)
	require.Len(t, list.Posts, 60)
	assert.Equal(t, "A subtitle for post number 1", list.Posts[0].Summary)
}

func TestService_ShowPosts_NoCandidates(t *testing.T) {
	s := newService(seed())

	list, err := s.ShowPosts(context.Background(), "post", "missing")
	require.NoError(t, err)
	assert.True(t, list.NoCandidates)
	assert.True(t, list.Empty)
}

func TestService_ShowPosts_NothingMeaningful(t *testing.T) {
	m := seed()
	m.AddMeta(5, "blank", meta.Text(""))
	s := newService(m)

	list, err := s.ShowPosts(context.Background(), "post", "blank")
	require.NoError(t, err)
	assert.False(t, list.NoCandidates)
	assert.True(t, list.Empty)
}

func TestService_Run(t *testing.T) {
	s := newService(seed())

	rep, err := s.Run(context.Background(), Request{
		ContentType:  "post",
		TypeSelected: true,
		MetaKey:      "subtitle",
		Action:       ActionShowMeta,
		Page:         1,
		PerPage:      20,
	})
	require.NoError(t, err)
	assert.Len(t, rep.Overview.Keys, 2)
	require.NotNil(t, rep.Meta)
	assert.Len(t, rep.Meta.Records, 20)
	assert.Nil(t, rep.Posts)
	assert.Equal(t, "?action_view=show_meta&uc_meta_key=subtitle&uc_page=1&uc_per_page=20&uc_post_type=post", rep.Permalink)

	rep, err = s.Run(context.Background(), Request{
		ContentType: "post",
		MetaKey:     "subtitle",
		Action:      ActionShowMeta,
		Page:        9,
		PerPage:     20,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Meta.Page)
	assert.Contains(t, rep.Permalink, "uc_page=3")

	rep, err = s.Run(context.Background(), Request{ContentType: "post", Action: ActionShowPosts})
	require.NoError(t, err)
	assert.Nil(t, rep.Posts)
	assert.Nil(t, rep.Meta)
}

func TestService_StorageErrorPropagates(t *testing.T) {
	m := seed()
	boom := errors.New("db down")
	m.Err = boom
	s := newService(m)

	_, err := s.Run(context.Background(), Request{ContentType: "post"})
	assert.ErrorIs(t, err, boom)

	_, err = s.ShowMeta(context.Background(), "post", "subtitle", 1, 20)
	assert.ErrorIs(t, err, boom)

	_, err = s.ShowPosts(context.Background(), "post", "subtitle")
	assert.ErrorIs(t, err, boom)
}
