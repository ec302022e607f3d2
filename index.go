package blockframe

import (
	"fmt"
	"slices"
	"strconv"

	"blockframe/internal/cache"
)

// Index is an ordered set of labels for one axis. Indexes are immutable;
// relabeling operations build a new Index, which inherits the cache
// capacity. Label resolution is memoized in a small LRU, which stays valid
// for the Index's lifetime.
type Index struct {
	name      string
	labels    []string
	locs      *cache.LocCache
	cacheSize int
}

// NewIndex builds an index over a copy of labels.
func NewIndex(labels []string) *Index {
	return newIndexSized(labels, 0)
}

func newIndexSized(labels []string, cacheSize int) *Index {
	ix := &Index{labels: slices.Clone(labels), cacheSize: cacheSize}
	if locs, err := cache.New(cacheSize); err == nil {
		ix.locs = locs
	}
	return ix
}

// RangeIndex builds the default positional index "0".."n-1".
func RangeIndex(n int) *Index {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = strconv.Itoa(i)
	}
	return newIndexSized(labels, 0)
}

func (ix *Index) Len() int           { return len(ix.labels) }
func (ix *Index) Name() string       { return ix.name }
func (ix *Index) Label(i int) string { return ix.labels[i] }

// Labels returns a copy of the labels.
func (ix *Index) Labels() []string { return slices.Clone(ix.labels) }

// GetLoc resolves a label to its ordinal.
func (ix *Index) GetLoc(label string) (int, error) {
	if ix.locs != nil {
		if i, ok := ix.locs.Get(label); ok {
			return i, nil
		}
	}
	for i, l := range ix.labels {
		if l == label {
			if ix.locs != nil {
				ix.locs.Put(label, i)
			}
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrLabelNotFound, label)
}

// Rename applies mapper to every label.
func (ix *Index) Rename(mapper func(string) string) *Index {
	labels := make([]string, len(ix.labels))
	for i, l := range ix.labels {
		labels[i] = mapper(l)
	}
	out := newIndexSized(labels, ix.cacheSize)
	out.name = ix.name
	return out
}

// WithName returns the index renamed to name, labels unchanged.
func (ix *Index) WithName(name string) *Index {
	out := newIndexSized(ix.labels, ix.cacheSize)
	out.name = name
	return out
}

// Slice returns the index over labels [lo, hi).
func (ix *Index) Slice(lo, hi int) *Index {
	out := newIndexSized(ix.labels[lo:hi], ix.cacheSize)
	out.name = ix.name
	return out
}

// Take returns the index over the labels at idx. Negative indices yield
// the empty label.
func (ix *Index) Take(idx []int) *Index {
	labels := make([]string, len(idx))
	for i, j := range idx {
		if j >= 0 {
			labels[i] = ix.labels[j]
		}
	}
	out := newIndexSized(labels, ix.cacheSize)
	out.name = ix.name
	return out
}

// Equal reports whether both indexes hold the same labels in order.
func (ix *Index) Equal(other *Index) bool {
	return slices.Equal(ix.labels, other.labels)
}
