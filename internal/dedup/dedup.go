package dedup

import "tendertracker/internal/domain"

// KeySet tracks tender identity keys for duplicate detection. It is seeded
// from the persisted store at the start of a run and grows as the batch is
// processed, so pagination overlap inside one fetch collapses too. Mutation
// happens only on the orchestrating goroutine; no locking needed.
type KeySet struct {
	seen map[domain.Key]struct{}
}

// NewKeySet builds a set pre-loaded with the given keys.
func NewKeySet(existing []domain.Key) *KeySet {
	seen := make(map[domain.Key]struct{}, len(existing))
	for _, k := range existing {
		seen[k] = struct{}{}
	}
	return &KeySet{seen: seen}
}

// IsDuplicate reports whether the key was already observed.
func (s *KeySet) IsDuplicate(key domain.Key) bool {
	_, ok := s.seen[key]
	return ok
}

// Observe marks the key as seen and reports whether it was a duplicate. New
// keys enter the set immediately, so a second candidate with the same
// identity inside the same batch reports true.
func (s *KeySet) Observe(key domain.Key) bool {
	if _, ok := s.seen[key]; ok {
		return true
	}
	s.seen[key] = struct{}{}
	return false
}

// Len returns the number of distinct keys tracked.
func (s *KeySet) Len() int {
	return len(s.seen)
}
