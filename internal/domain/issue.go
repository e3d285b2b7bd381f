package domain

import "errors"

// Run-level and adapter-level failures. Record-level problems travel as
// Issue values, not errors.
var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrPersistence       = errors.New("persistence failed")
	ErrNoData            = errors.New("no adapter produced data")
)

// IssueKind classifies a per-record problem.
type IssueKind string

const (
	IssueParseFailure      IssueKind = "parse_failure"
	IssueValidationFailure IssueKind = "validation_failure"
	IssueRepaired          IssueKind = "repaired"
	IssueManualReview      IssueKind = "manual_review"
)

// Issue is a record-level finding collected alongside pipeline output. It
// carries enough context to diagnose the row without re-scraping.
type Issue struct {
	Kind     IssueKind
	Source   Source
	TenderID string
	Message  string
	Snippet  string
}
