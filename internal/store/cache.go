package store

import (
	"github.com/roach88/docgraph/internal/flex"
)

// Content is immutable per hash, so cached entries never go stale; the
// TTL only bounds memory. Entries are cloned on the way in and out so
// callers cannot alias cached slices.

func (s *Store) cacheGet(hash flex.Digest) ([]flex.ContentGroup, bool) {
	if s.cache == nil {
		return nil, false
	}
	obj, found := s.cache.Get(hash.String())
	if !found {
		return nil, false
	}
	return flex.CloneGroups(obj.([]flex.ContentGroup)), true
}

func (s *Store) cachePut(hash flex.Digest, groups []flex.ContentGroup) {
	if s.cache == nil {
		return
	}
	s.cache.Set(hash.String(), flex.CloneGroups(groups), s.cacheTTL)
}

// CachedItems returns the number of cached documents, including expired
// entries not yet swept.
func (s *Store) CachedItems() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.ItemCount()
}
