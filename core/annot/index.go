package annot

import (
	"slices"
	"sort"
)

// intervalIndex keeps a set's annotations sorted by (Start, End, ID).
//
// Every query narrows the candidates with a binary search on Start. For
// Overlapping and Covering a candidate can start up to maxLen bytes before
// the query interval, so maxLen bounds the left edge of the scan.
type intervalIndex struct {
	byStart []*Annotation
	maxLen  int
	dirty   bool
}

// insert adds a. Producers usually add in document order, so the common case
// appends without invalidating the sorted slice.
func (idx *intervalIndex) insert(a *Annotation) {
	if idx.dirty {
		return
	}
	if n := len(idx.byStart); n > 0 && compare(idx.byStart[n-1], a) > 0 {
		idx.dirty = true
		return
	}
	idx.byStart = append(idx.byStart, a)
	if a.Len() > idx.maxLen {
		idx.maxLen = a.Len()
	}
}

// invalidate forces a rebuild before the next query.
func (idx *intervalIndex) invalidate() {
	idx.dirty = true
}

// rebuild re-sorts from the set's insertion-ordered slice.
func (idx *intervalIndex) rebuild(all []*Annotation) {
	idx.byStart = append(idx.byStart[:0], all...)
	slices.SortFunc(idx.byStart, compare)
	idx.maxLen = 0
	for _, a := range idx.byStart {
		if a.Len() > idx.maxLen {
			idx.maxLen = a.Len()
		}
	}
	idx.dirty = false
}

// firstAtOrAfter returns the position of the first annotation with Start >= offset.
func (idx *intervalIndex) firstAtOrAfter(offset int) int {
	return sort.Search(len(idx.byStart), func(i int) bool {
		return idx.byStart[i].start >= offset
	})
}

func (idx *intervalIndex) contained(start, end int) Annotations {
	out := Annotations{}
	for i := idx.firstAtOrAfter(start); i < len(idx.byStart); i++ {
		a := idx.byStart[i]
		if a.start > end {
			break
		}
		if a.end <= end {
			out = append(out, a)
		}
	}
	return out
}

func (idx *intervalIndex) overlapping(start, end int) Annotations {
	out := Annotations{}
	for i := idx.firstAtOrAfter(start - idx.maxLen); i < len(idx.byStart); i++ {
		a := idx.byStart[i]
		if a.start >= end {
			break
		}
		if a.end > start {
			out = append(out, a)
		}
	}
	return out
}

func (idx *intervalIndex) covering(start, end int) Annotations {
	out := Annotations{}
	for i := idx.firstAtOrAfter(end - idx.maxLen); i < len(idx.byStart); i++ {
		a := idx.byStart[i]
		if a.start > start {
			break
		}
		if a.end >= end {
			out = append(out, a)
		}
	}
	return out
}
