package index

import (
	"net/http"
	"sort"
	"sync"

	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/errors"
)

// MemoryIndex accumulates postings lists while documents are added in
// ascending document-ID order.
type MemoryIndex struct {
	mu      sync.RWMutex
	index   map[string]PostingList
	all     PostingList
	lastDoc uint32
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		index: make(map[string]PostingList),
	}
}

// AddDocument appends docID to the postings list of every term. A term that
// repeats within the document is recorded once. Document IDs must be added
// in strictly ascending order.
func (m *MemoryIndex) AddDocument(docID uint32, terms []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.all) > 0 && docID <= m.lastDoc {
		return apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"document %d added after document %d", docID, m.lastDoc)
	}
	for _, term := range terms {
		postings := m.index[term]
		if len(postings) == 0 || postings[len(postings)-1] != docID {
			m.index[term] = append(postings, docID)
		}
	}
	m.all = append(m.all, docID)
	m.lastDoc = docID
	return nil
}

// Search returns a copy of the postings list for term, or nil.
func (m *MemoryIndex) Search(term string) PostingList {
	m.mu.RLock()
	defer m.mu.RUnlock()
	postings, exists := m.index[term]
	if !exists {
		return nil
	}
	result := make(PostingList, len(postings))
	copy(result, postings)
	return result
}

// Snapshot returns every term entry sorted by term, plus the all-documents
// list. The returned lists alias the index and must not be modified.
func (m *MemoryIndex) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]TermEntry, 0, len(m.index))
	for term, postings := range m.index {
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: postings,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return Snapshot{Terms: entries, All: m.all}
}

func (m *MemoryIndex) Terms() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.index)
}

func (m *MemoryIndex) DocCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.all)
}

func (m *MemoryIndex) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index = make(map[string]PostingList)
	m.all = nil
	m.lastDoc = 0
}
