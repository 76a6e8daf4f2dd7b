package benchmarks

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/fieldradar/fieldradar/internal/catalog"
	"github.com/fieldradar/fieldradar/internal/finder"
	"github.com/fieldradar/fieldradar/internal/meta"
	"github.com/fieldradar/fieldradar/internal/report"
	"github.com/fieldradar/fieldradar/internal/store"
	"github.com/fieldradar/fieldradar/internal/store/storetest"
	"github.com/fieldradar/fieldradar/internal/web/api"
)

const benchRecords = 5000

// seedStore adds benchRecords posts whose "details" value alternates
// between a nested meaningful mapping and a nested blank one
func seedStore() *storetest.Memory {
	m := storetest.NewMemory()
	for i := 1; i <= benchRecords; i++ {
		id := store.RecordID(i)
		m.AddRecord(store.Record{ID: id, Type: "post", Title: fmt.Sprintf("Post %d", i), Slug: fmt.Sprintf("post-%d", i)})
		if i%2 == 0 {
			m.AddMeta(id, "details", meta.Decode(`a:2:{s:4:"rows";a:1:{i:0;s:0:"";}s:4:"note";s:5:"hello";}`))
		} else {
			m.AddMeta(id, "details", meta.Decode(`a:2:{s:4:"rows";a:1:{i:0;s:1:" ";}s:4:"note";N;}`))
		}
	}
	return m
}

// BenchmarkFindUsed compares the finder modes over the same data
func BenchmarkFindUsed(b *testing.B) {
	s := seedStore()
	ctx := context.Background()

	for _, mode := range []finder.Mode{finder.Sequential, finder.Parallel, finder.Batch} {
		b.Run(string(mode), func(b *testing.B) {
			f := finder.New(s, finder.Options{Mode: mode})

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				ids, err := f.FindUsed(ctx, "post", "details")
				if err != nil {
					b.Fatal(err)
				}
				if len(ids) != benchRecords/2 {
					b.Fatalf("got %d used records", len(ids))
				}
			}
		})
	}
}

// BenchmarkDecode benchmarks unserializing a nested stored value
func BenchmarkDecode(b *testing.B) {
	raw := `a:3:{s:5:"title";s:11:"Hello world";s:4:"tags";a:3:{i:0;s:2:"go";i:1;s:3:"sql";i:2;s:0:"";}s:6:"active";b:1;}`

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		meta.Decode(raw)
	}
}

// BenchmarkIsMeaningful benchmarks the predicate on a deep blank value
func BenchmarkIsMeaningful(b *testing.B) {
	v := meta.Text("")
	for i := 0; i < 20; i++ {
		v = meta.Sequence(v, meta.Mapping(meta.Entry{Key: "k", Value: meta.Null()}))
	}
	p := meta.DefaultPolicy()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if p.IsMeaningful(v) {
			b.Fatal("blank value reported meaningful")
		}
	}
}

// BenchmarkRecordsEndpoint benchmarks a paged records request through the
// full middleware chain
func BenchmarkRecordsEndpoint(b *testing.B) {
	s := seedStore()
	logger := zap.NewNop()
	f := finder.New(s, finder.Options{Mode: finder.Batch, Logger: logger})
	svc := report.NewService(s, catalog.New(s, logger), f, logger)
	handler := api.New(api.Config{Service: svc, Defaults: report.DefaultDefaults(), Logger: logger})

	req := httptest.NewRequest(http.MethodGet, "/api/types/post/keys/details/records?uc_page=7&uc_per_page=50", nil)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			b.Fatalf("status %d", w.Code)
		}
	}
}
