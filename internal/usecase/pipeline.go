package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"tendertracker/internal/classify"
	"tendertracker/internal/dedup"
	"tendertracker/internal/domain"
	"tendertracker/internal/normalize"
	"tendertracker/internal/ports"
	"tendertracker/internal/validate"
)

// State names the pipeline's position in a run.
type State string

const (
	StateIdle          State = "idle"
	StateFetching      State = "fetching"
	StateNormalizing   State = "normalizing"
	StateValidating    State = "validating"
	StateDeduplicating State = "deduplicating"
	StatePersisting    State = "persisting"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// SourceStats counts what happened to one portal's records during a run.
type SourceStats struct {
	Fetched    int
	Skipped    int
	Dropped    int
	Duplicates int
	Discarded  int
	Persisted  int
	Failed     bool
	FailureMsg string
}

// Summary is the user-visible outcome of one ingestion run.
type Summary struct {
	RunID         string
	State         State
	Started       time.Time
	PerSource     map[domain.Source]*SourceStats
	FailedSources []domain.Source
	Issues        []domain.Issue
	Persisted     int
}

// Partial reports whether the run succeeded with at least one failed source.
func (s *Summary) Partial() bool {
	return s.State == StateDone && len(s.FailedSources) > 0
}

// PipelineDeps wires all collaborators into the orchestration pipeline.
type PipelineDeps struct {
	Adapters      []ports.SourceAdapter
	Sink          ports.TenderSink
	Categorizer   *classify.Categorizer
	Validator     *validate.Validator
	GraceDays     int
	KeepUnmatched bool
	Logger        *slog.Logger
	Now           func() time.Time
}

// Pipeline implements the full ingestion workflow: fetch all portals
// concurrently, then normalize, categorize, validate, deduplicate, and hand
// the delta to the sink as one batch.
type Pipeline struct {
	adapters      []ports.SourceAdapter
	sink          ports.TenderSink
	categorizer   *classify.Categorizer
	validator     *validate.Validator
	graceDays     int
	keepUnmatched bool
	logger        *slog.Logger
	now           func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		adapters:      deps.Adapters,
		sink:          deps.Sink,
		categorizer:   deps.Categorizer,
		validator:     deps.Validator,
		graceDays:     deps.GraceDays,
		keepUnmatched: deps.KeepUnmatched,
		logger:        deps.Logger,
		now:           now,
	}
}

type fetchOutcome struct {
	source domain.Source
	result ports.FetchResult
	err    error
}

// Run executes one full ingestion. Record-level problems surface in the
// summary's issue list; the returned error is non-nil only for run-level
// failures (no data at all, or persistence).
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.NewString(),
		State:     StateIdle,
		Started:   p.now(),
		PerSource: map[domain.Source]*SourceStats{},
	}
	for _, a := range p.adapters {
		summary.PerSource[a.Source()] = &SourceStats{}
	}

	logger := p.logger
	if logger != nil {
		logger = logger.With("run_id", summary.RunID)
	}

	// "today" is evaluated once so every record shares one reference instant.
	normalizer := normalize.New(summary.Started, p.graceDays)

	outcomes := p.fetchAll(ctx, summary, logger)

	total := 0
	for _, o := range outcomes {
		total += len(o.result.Candidates)
	}
	if total == 0 {
		summary.State = StateFailed
		return summary, fmt.Errorf("%w: all sources empty or failed", domain.ErrNoData)
	}

	existing, err := p.sink.ExistingKeys(ctx)
	if err != nil {
		summary.State = StateFailed
		return summary, fmt.Errorf("%w: load existing keys: %v", domain.ErrPersistence, err)
	}
	keys := dedup.NewKeySet(existing)

	var batch []domain.TenderRecord
	for _, o := range outcomes {
		stats := summary.PerSource[o.source]
		for _, cand := range o.result.Candidates {
			rec, ok := p.process(cand, normalizer, summary, stats, keys)
			if !ok {
				continue
			}
			batch = append(batch, rec)
		}
	}

	summary.State = StatePersisting
	p.transition(logger, summary.State, "records", len(batch))

	if len(batch) > 0 {
		if err := p.sink.Append(ctx, batch); err != nil {
			summary.State = StateFailed
			return summary, err
		}
	}

	for _, rec := range batch {
		summary.PerSource[rec.Source].Persisted++
	}
	summary.Persisted = len(batch)
	summary.State = StateDone

	if logger != nil {
		logger.Info("run complete",
			"persisted", summary.Persisted,
			"issues", len(summary.Issues),
			"failed_sources", len(summary.FailedSources))
	}
	return summary, nil
}

// fetchAll runs every adapter concurrently. Each goroutine writes only its
// own slot; merging happens on this goroutine after all finish.
func (p *Pipeline) fetchAll(ctx context.Context, summary *Summary, logger *slog.Logger) []fetchOutcome {
	summary.State = StateFetching
	p.transition(logger, summary.State, "adapters", len(p.adapters))

	outcomes := make([]fetchOutcome, len(p.adapters))
	var wg sync.WaitGroup
	for i, adapter := range p.adapters {
		wg.Add(1)
		go func(i int, adapter ports.SourceAdapter) {
			defer wg.Done()
			result, err := adapter.Fetch(ctx)
			outcomes[i] = fetchOutcome{source: adapter.Source(), result: result, err: err}
		}(i, adapter)
	}
	wg.Wait()

	for _, o := range outcomes {
		stats := summary.PerSource[o.source]
		stats.Fetched = len(o.result.Candidates)
		stats.Skipped = o.result.Skipped
		if o.err != nil {
			stats.Failed = true
			stats.FailureMsg = o.err.Error()
			summary.FailedSources = append(summary.FailedSources, o.source)
			if logger != nil {
				logger.Warn("source failed", "source", o.source, "kept_candidates", len(o.result.Candidates), "error", o.err)
			}
		}
	}
	return outcomes
}

// process runs one candidate through normalize, categorize, validate, and
// dedup. Returns false when the record is dropped, discarded, or a duplicate.
func (p *Pipeline) process(cand domain.RawCandidate, normalizer *normalize.DateNormalizer,
	summary *Summary, stats *SourceStats, keys *dedup.KeySet) (domain.TenderRecord, bool) {

	summary.State = StateNormalizing
	closing, err := normalizer.Normalize(cand.Closing, cand.Source)
	if err != nil {
		summary.Issues = append(summary.Issues, domain.Issue{
			Kind:     domain.IssueParseFailure,
			Source:   cand.Source,
			TenderID: cand.TenderID,
			Message:  err.Error(),
			Snippet:  cand.Closing,
		})
	}

	category, tier := p.categorizer.Categorize(cand.Title, cand.Description)

	rec := domain.TenderRecord{
		Source:       cand.Source,
		TenderID:     cand.TenderID,
		Title:        cand.Title,
		Buyer:        cand.Buyer,
		Category:     category,
		PriorityTier: tier,
		ClosingDate:  closing,
		ValueZAR:     cand.ValueZAR,
		Description:  cand.Description,
		DocumentLink: cand.DocumentLink,
		Status:       "New",
		DateScraped:  normalizer.Today(),
	}
	if closing != nil {
		days := normalizer.DaysRemaining(*closing)
		rec.DaysRemaining = &days
	}

	summary.State = StateValidating
	repaired, issues := p.validator.ValidateAndRepair(rec, cand)
	summary.Issues = append(summary.Issues, issues...)
	if repaired == nil {
		stats.Dropped++
		return domain.TenderRecord{}, false
	}
	rec = *repaired

	// Priority flag after repair, since the buyer may have been recovered.
	rec.PriorityBuyer = p.categorizer.IsPriorityBuyer(rec.Buyer)
	rec.AlertEligible = rec.PriorityBuyer || rec.Category == domain.CategoryInsurance

	summary.State = StateDeduplicating
	if keys.Observe(rec.Key()) {
		stats.Duplicates++
		return domain.TenderRecord{}, false
	}

	if !p.keepUnmatched && rec.Category == domain.CategoryUncategorized && !rec.PriorityBuyer {
		stats.Discarded++
		return domain.TenderRecord{}, false
	}

	return rec, true
}

func (p *Pipeline) transition(logger *slog.Logger, state State, args ...any) {
	if logger != nil {
		logger.Debug("state transition", append([]any{"state", state}, args...)...)
	}
}
