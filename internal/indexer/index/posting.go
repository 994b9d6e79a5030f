package index

import "math"

// PostingList is a strictly ascending, duplicate-free list of document IDs.
type PostingList []uint32

type TermEntry struct {
	Term     string
	Postings PostingList
}

// Snapshot is the complete content of an index, ready to be written.
type Snapshot struct {
	Terms []TermEntry
	All   PostingList
}

// Stride returns the skip distance for a list of n postings,
// floor(sqrt(n)). Strides of 0 and 1 disable skipping.
func Stride(n int) int {
	if n <= 0 {
		return 0
	}
	s := int(math.Sqrt(float64(n)))
	// correct float rounding for large n
	for s*s > n {
		s--
	}
	for (s+1)*(s+1) <= n {
		s++
	}
	return s
}

// Valid reports whether p is strictly ascending.
func (p PostingList) Valid() bool {
	for i := 1; i < len(p); i++ {
		if p[i] <= p[i-1] {
			return false
		}
	}
	return true
}
