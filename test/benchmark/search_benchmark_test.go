package benchmark

import (
	"context"
	"testing"

	"github.com/RoaringBitmap/roaring"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/parser"
)

var benchQueries = []struct {
	name  string
	query string
}{
	{"term", "alpha"},
	{"and", "alpha AND bravo"},
	{"and_rare", "alpha AND zulu"},
	{"or", "yankee OR zulu"},
	{"and_not", "alpha AND NOT bravo"},
	{"not", "NOT alpha"},
	{"nested", "(alpha OR charlie) AND NOT (delta OR echo)"},
}

func BenchmarkQueryParse(b *testing.B) {
	var n tokenizer.English
	for _, q := range benchQueries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := parser.Parse(q.query, n); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSessionSearch(b *testing.B) {
	session := searcher.NewSession(writeCorpusIndex(b, 20000), tokenizer.English{}, nil, nil)
	ctx := context.Background()
	for _, q := range benchQueries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := session.Search(ctx, q.query); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSessionSearchParallel(b *testing.B) {
	session := searcher.NewSession(writeCorpusIndex(b, 20000), tokenizer.English{}, nil, nil)
	ctx := context.Background()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := session.Search(ctx, "alpha AND NOT bravo"); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

// BenchmarkIntersectSkewed compares skip-pointer intersection of a long and a
// short list against a compressed bitmap intersection.
func BenchmarkIntersectSkewed(b *testing.B) {
	store := writeCorpusIndex(b, 20000)
	longIDs, longStride, _, err := store.Lookup("alpha")
	if err != nil {
		b.Fatal(err)
	}
	shortIDs, shortStride, _, err := store.Lookup("zulu")
	if err != nil {
		b.Fatal(err)
	}
	long := merger.Result{IDs: longIDs, Stride: longStride}
	short := merger.Result{IDs: shortIDs, Stride: shortStride}

	b.Run("skip", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = merger.Intersect(long, short)
		}
	})
	b.Run("linear", func(b *testing.B) {
		l, s := merger.Result{IDs: longIDs}, merger.Result{IDs: shortIDs}
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = merger.Intersect(l, s)
		}
	})
	b.Run("roaring", func(b *testing.B) {
		lb, sb := roaring.BitmapOf(longIDs...), roaring.BitmapOf(shortIDs...)
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = roaring.And(lb, sb).ToArray()
		}
	})
}
