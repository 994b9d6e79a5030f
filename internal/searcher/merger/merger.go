// Package merger combines sorted postings lists. Intersection and difference
// use skip pointers: a list of length n with stride s has a logical pointer
// from every position i where i mod s == 0 to position i+s. Pointers are
// implied by the stride, never stored.
//
// Every operation takes two ascending, duplicate-free lists and returns a
// fresh ascending, duplicate-free list with its own stride.
package merger

import (
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/index"
)

// Result is a query result: document IDs and the stride that applies to
// them.
type Result struct {
	IDs    index.PostingList
	Stride int
}

// NewResult wraps ids with a stride computed from their length.
func NewResult(ids index.PostingList) Result {
	return Result{IDs: ids, Stride: index.Stride(len(ids))}
}

// Len returns the number of documents in r.
func (r Result) Len() int { return len(r.IDs) }

// hasSkip reports whether position i of a list of length n carries a usable
// skip pointer. Strides below 2 never skip.
func hasSkip(i, stride, n int) bool {
	return stride > 1 && i%stride == 0 && i+stride < n
}

// advance moves i past values smaller than bound. If i sits on a skip
// pointer whose target is still <= bound it follows pointers for as long as
// that holds; otherwise it steps once.
func advance(list index.PostingList, i, stride int, bound uint32) int {
	if hasSkip(i, stride, len(list)) && list[i+stride] <= bound {
		for hasSkip(i, stride, len(list)) && list[i+stride] <= bound {
			i += stride
		}
		return i
	}
	return i + 1
}

// Intersect returns the documents present in both a and b.
func Intersect(a, b Result) Result {
	l1, l2 := a.IDs, b.IDs
	out := make(index.PostingList, 0, min(len(l1), len(l2)))
	i, j := 0, 0
	for i < len(l1) && j < len(l2) {
		switch {
		case l1[i] == l2[j]:
			out = append(out, l1[i])
			i++
			j++
		case l1[i] < l2[j]:
			i = advance(l1, i, a.Stride, l2[j])
		default:
			j = advance(l2, j, b.Stride, l1[i])
		}
	}
	return NewResult(out)
}

// Union returns the documents present in a or b. Skip pointers cannot help
// here since every element may be emitted.
func Union(a, b Result) Result {
	l1, l2 := a.IDs, b.IDs
	if len(l1) == 0 || len(l2) == 0 {
		if len(l1) == 0 {
			return NewResult(clone(l2))
		}
		return NewResult(clone(l1))
	}
	out := make(index.PostingList, 0, len(l1)+len(l2))
	i, j := 0, 0
	for i < len(l1) && j < len(l2) {
		switch {
		case l1[i] < l2[j]:
			out = append(out, l1[i])
			i++
		case l2[j] < l1[i]:
			out = append(out, l2[j])
			j++
		default:
			out = append(out, l1[i])
			i++
			j++
		}
	}
	out = append(out, l1[i:]...)
	out = append(out, l2[j:]...)
	return NewResult(out)
}

// Difference returns the documents of a that are not in b.
func Difference(a, b Result) Result {
	l1, l2 := a.IDs, b.IDs
	out := make(index.PostingList, 0, len(l1))
	i, j := 0, 0
	for i < len(l1) && j < len(l2) {
		switch {
		case l1[i] < l2[j]:
			out = append(out, l1[i])
			i++
		case l1[i] == l2[j]:
			i++
			j++
		default:
			j = advance(l2, j, b.Stride, l1[i])
		}
	}
	out = append(out, l1[i:]...)
	return NewResult(out)
}

// Complement returns the documents of all that are not in a.
func Complement(all, a Result) Result {
	return Difference(all, a)
}

func clone(p index.PostingList) index.PostingList {
	out := make(index.PostingList, len(p))
	copy(out, p)
	return out
}
