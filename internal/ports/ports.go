package ports

import (
	"context"

	"tendertracker/internal/domain"
)

// FetchResult is what a portal adapter hands back: the candidate rows it
// could extract, plus how many malformed rows it skipped along the way.
type FetchResult struct {
	Candidates []domain.RawCandidate
	Skipped    int
}

// SourceAdapter pulls tender listings from one portal. Fetch may return
// partial candidates together with an error (e.g. a pagination failure after
// some pages succeeded); callers keep the partial data and degrade the run.
// Unrecoverable transport/auth failures wrap domain.ErrSourceUnavailable.
type SourceAdapter interface {
	Source() domain.Source
	Fetch(ctx context.Context) (FetchResult, error)
}

// TenderSink persists finished records and exposes the identity keys already
// stored, which seed deduplication at the start of a run. The sink is not
// trusted to enforce uniqueness; dedup completes before Append is called.
type TenderSink interface {
	ExistingKeys(ctx context.Context) ([]domain.Key, error)
	Append(ctx context.Context, records []domain.TenderRecord) error
}
