package searcher

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/postings"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/redis"
)

var corpus = indexer.StringSource{
	1: "The quick brown fox jumps over the lazy dog.",
	2: "A lazy afternoon for the brown cat.",
	3: "Foxes and cats are quick animals.",
	4: "Nothing to see here.",
}

// buildIndex indexes corpus with the English normalizer and opens it.
func buildIndex(t *testing.T) *postings.Store {
	t.Helper()
	dir := t.TempDir()
	dictPath := filepath.Join(dir, "dictionary.txt")
	postingsPath := filepath.Join(dir, "postings.txt")
	b := indexer.NewBuilder(config.IndexConfig{Workers: 2, BatchSize: 2}, tokenizer.English{}, nil)
	if _, err := b.Run(context.Background(), corpus, dictPath, postingsPath); err != nil {
		t.Fatal(err)
	}
	store, err := postings.Open(dictPath, postingsPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSessionSearch(t *testing.T) {
	s := NewSession(buildIndex(t), tokenizer.English{}, nil, nil)
	tests := []struct {
		query string
		want  []uint32
	}{
		{"fox", []uint32{1, 3}},
		{"Foxes", []uint32{1, 3}},
		{"quick AND cat", []uint32{3}},
		{"lazy OR cats", []uint32{1, 2, 3}},
		{"brown AND NOT fox", []uint32{2}},
		{"NOT (brown OR quick)", []uint32{4}},
		{"NOT NOT lazy", []uint32{1, 2}},
		{"unicorn", []uint32{}},
		{"unicorn OR dog", []uint32{1}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := s.Search(context.Background(), tt.query)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestSessionRejectsMalformedQueries(t *testing.T) {
	m := metrics.New(nil)
	s := NewSession(buildIndex(t), tokenizer.English{}, nil, m)
	for _, q := range []string{"(fox", "fox AND", "fox dog", ""} {
		if _, err := s.Search(context.Background(), q); !errors.Is(err, apperrors.ErrInvalidQuery) {
			t.Errorf("Search(%q) error = %v, want ErrInvalidQuery", q, err)
		}
	}
}

func TestSessionConcurrentQueries(t *testing.T) {
	s := NewSession(buildIndex(t), tokenizer.English{}, nil, nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got, err := s.Search(context.Background(), "brown AND NOT fox")
				if err != nil || !reflect.DeepEqual(got, []uint32{2}) {
					t.Errorf("got %v, %v", got, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

type mapBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, pkgredis.Nil
	}
	return v, nil
}

func (m *mapBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapBackend) DeletePrefix(context.Context, string) (int64, error) { return 0, nil }

func TestSessionUsesCache(t *testing.T) {
	qc := cache.New(&mapBackend{data: make(map[string][]byte)}, time.Minute, nil)
	s := NewSession(buildIndex(t), tokenizer.English{}, qc, metrics.New(nil))
	ctx := context.Background()

	first, err := s.Query(ctx, "quick OR lazy")
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Query(ctx, "quick  OR  lazy")
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached || !second.Cached {
		t.Errorf("cached = %v, %v; want false, true", first.Cached, second.Cached)
	}
	if !reflect.DeepEqual(first.DocIDs, second.DocIDs) {
		t.Errorf("cached result %v differs from %v", second.DocIDs, first.DocIDs)
	}
	if first.Postfix != "quick lazi OR" {
		t.Errorf("postfix = %q", first.Postfix)
	}
}
