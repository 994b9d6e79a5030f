package index

import (
	"errors"
	"reflect"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/errors"
)

func TestMemoryIndexDeduplicatesWithinDocument(t *testing.T) {
	mi := NewMemoryIndex()
	docs := []struct {
		id    uint32
		terms []string
	}{
		{1, []string{"cat", "dog", "cat"}},
		{2, []string{"dog", "dog"}},
		{10, []string{"cat", "bird", "cat", "cat"}},
	}
	for _, d := range docs {
		if err := mi.AddDocument(d.id, d.terms); err != nil {
			t.Fatalf("AddDocument(%d): %v", d.id, err)
		}
	}

	want := map[string]PostingList{
		"cat":  {1, 10},
		"dog":  {1, 2},
		"bird": {10},
	}
	for term, postings := range want {
		if got := mi.Search(term); !reflect.DeepEqual(got, postings) {
			t.Errorf("Search(%q) = %v, want %v", term, got, postings)
		}
	}
	if got := mi.Search("fish"); got != nil {
		t.Errorf("Search(fish) = %v, want nil", got)
	}

	snap := mi.Snapshot()
	if !reflect.DeepEqual(snap.All, PostingList{1, 2, 10}) {
		t.Errorf("All = %v", snap.All)
	}
	if len(snap.Terms) != 3 || snap.Terms[0].Term != "bird" || snap.Terms[2].Term != "dog" {
		t.Errorf("snapshot not sorted by term: %+v", snap.Terms)
	}
	for _, e := range snap.Terms {
		if !e.Postings.Valid() {
			t.Errorf("postings for %q not strictly ascending: %v", e.Term, e.Postings)
		}
	}
	if mi.DocCount() != 3 || mi.Terms() != 3 {
		t.Errorf("DocCount=%d Terms=%d", mi.DocCount(), mi.Terms())
	}
}

func TestMemoryIndexDocumentWithoutTerms(t *testing.T) {
	mi := NewMemoryIndex()
	if err := mi.AddDocument(0, nil); err != nil {
		t.Fatal(err)
	}
	if err := mi.AddDocument(3, []string{"x"}); err != nil {
		t.Fatal(err)
	}
	if got := mi.Snapshot().All; !reflect.DeepEqual(got, PostingList{0, 3}) {
		t.Errorf("All = %v, want [0 3]", got)
	}
}

func TestMemoryIndexRejectsOutOfOrder(t *testing.T) {
	mi := NewMemoryIndex()
	if err := mi.AddDocument(5, []string{"a"}); err != nil {
		t.Fatal(err)
	}
	err := mi.AddDocument(5, []string{"b"})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("duplicate doc: err = %v, want ErrInvalidInput", err)
	}
	if err := mi.AddDocument(2, []string{"b"}); err == nil {
		t.Fatal("expected error for descending doc ID")
	}
	mi.Reset()
	if err := mi.AddDocument(2, []string{"b"}); err != nil {
		t.Fatalf("after Reset: %v", err)
	}
}

func TestStride(t *testing.T) {
	tests := []struct{ n, want int }{
		{0, 0}, {1, 1}, {3, 1}, {4, 2}, {8, 2}, {9, 3}, {99, 9}, {100, 10},
		{1 << 20, 1 << 10}, {(1 << 20) - 1, (1 << 10) - 1},
	}
	for _, tt := range tests {
		if got := Stride(tt.n); got != tt.want {
			t.Errorf("Stride(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
