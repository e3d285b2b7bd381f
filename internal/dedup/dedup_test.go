package dedup

import (
	"testing"

	"tendertracker/internal/domain"
)

func TestObserveAgainstSnapshot(t *testing.T) {
	t.Parallel()

	existing := []domain.Key{
		{Source: domain.SourceAPI, TenderID: "T-100"},
		{Source: domain.SourceHTML, TenderID: "EZ-2026-0042"},
	}
	set := NewKeySet(existing)

	if !set.Observe(domain.Key{Source: domain.SourceAPI, TenderID: "T-100"}) {
		t.Fatal("pre-loaded key not detected as duplicate")
	}
	if set.Observe(domain.Key{Source: domain.SourceAPI, TenderID: "T-101"}) {
		t.Fatal("fresh key reported as duplicate")
	}
}

func TestObserveWithinBatch(t *testing.T) {
	t.Parallel()

	set := NewKeySet(nil)
	key := domain.Key{Source: domain.SourceBrowser, TenderID: "TN-2026-7"}

	if set.Observe(key) {
		t.Fatal("first observation must not be a duplicate")
	}
	if !set.Observe(key) {
		t.Fatal("second observation inside the batch must collapse")
	}
	if set.Len() != 1 {
		t.Fatalf("expected 1 distinct key, got %d", set.Len())
	}
}

func TestSameIDDifferentSourceIsDistinct(t *testing.T) {
	t.Parallel()

	set := NewKeySet(nil)
	set.Observe(domain.Key{Source: domain.SourceAPI, TenderID: "X"})

	if set.IsDuplicate(domain.Key{Source: domain.SourceHTML, TenderID: "X"}) {
		t.Fatal("identity is (source, tender_id), not tender_id alone")
	}
}
