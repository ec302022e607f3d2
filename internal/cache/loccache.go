// Package cache memoizes column label lookups.
package cache

import (
	"github.com/cespare/xxhash/v2"
	"github.com/elastic/go-freelru"
)

const (
	// MinSize keeps the LRU useful even for tiny frames.
	MinSize = 16
)

// LocCache maps column labels to their ordinal in the column index. Label
// resolution is a linear scan; the cache makes repeated lookups O(1).
// Indexes are immutable, so a cache stays valid for its index's lifetime;
// relabeling builds a new index with a fresh cache.
type LocCache struct {
	lru *freelru.LRU[string, int]
}

func hashLabel(label string) uint32 {
	return uint32(xxhash.Sum64String(label))
}

// New creates a cache holding up to capacity labels.
func New(capacity int) (*LocCache, error) {
	capacity = max(capacity, MinSize)
	lru, err := freelru.New[string, int](uint32(capacity), hashLabel)
	if err != nil {
		return nil, err
	}
	return &LocCache{lru: lru}, nil
}

// Get returns the cached ordinal for label.
func (c *LocCache) Get(label string) (int, bool) {
	return c.lru.Get(label)
}

// Put records the ordinal for label.
func (c *LocCache) Put(label string, ordinal int) {
	c.lru.Add(label, ordinal)
}
