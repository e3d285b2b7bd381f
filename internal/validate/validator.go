package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"tendertracker/internal/classify"
	"tendertracker/internal/domain"
)

// requiredFields is the structural contract a candidate must satisfy to
// survive validation at all.
type requiredFields struct {
	TenderID string `validate:"required"`
	Title    string `validate:"required"`
}

// directMentions maps literal category-name phrases to categories for the
// title-mention repair. These are the category names themselves, not the full
// keyword sets the categorizer uses.
var directMentions = []struct {
	phrase   string
	category domain.Category
}{
	{"insurance", domain.CategoryInsurance},
	{"advisory", domain.CategoryAdvisory},
	{"consulting", domain.CategoryAdvisory},
	{"civil engineering", domain.CategoryCivil},
	{"cleaning", domain.CategoryCleaning},
	{"facility management", domain.CategoryCleaning},
	{"construction", domain.CategoryConstruction},
}

// Validator checks required fields and applies best-effort repairs for
// recoverable defects. It never returns an error: every outcome is a
// (possibly nil) record plus an issue list.
type Validator struct {
	check          *validator.Validate
	categorizer    *classify.Categorizer
	descriptionCap int
}

// New wires the validator. The categorizer is consulted for tier lookups when
// a repair overrides the category.
func New(categorizer *classify.Categorizer, descriptionCap int) *Validator {
	return &Validator{
		check:          validator.New(validator.WithRequiredStructEnabled()),
		categorizer:    categorizer,
		descriptionCap: descriptionCap,
	}
}

// ValidateAndRepair takes a draft record (dates already normalized, category
// already assigned) and the raw candidate it came from. A record failing the
// required-field check is dropped with a validation issue carrying the raw
// snippet; recoverable defects are repaired in order, each repair reported as
// an issue even when it succeeds.
func (v *Validator) ValidateAndRepair(rec domain.TenderRecord, raw domain.RawCandidate) (*domain.TenderRecord, []domain.Issue) {
	var issues []domain.Issue

	if err := v.check.Struct(requiredFields{TenderID: rec.TenderID, Title: rec.Title}); err != nil {
		issues = append(issues, domain.Issue{
			Kind:     domain.IssueValidationFailure,
			Source:   rec.Source,
			TenderID: rec.TenderID,
			Message:  fmt.Sprintf("required field missing: %s", missingFields(err)),
			Snippet:  snippet(raw),
		})
		return nil, issues
	}

	if rec.Buyer == "" {
		if buyer := buyerFromTitle(rec.Title); buyer != "" {
			rec.Buyer = buyer
			issues = append(issues, domain.Issue{
				Kind:     domain.IssueRepaired,
				Source:   rec.Source,
				TenderID: rec.TenderID,
				Message:  fmt.Sprintf("buyer recovered from title prefix: %q", buyer),
			})
		}
	}

	if rec.Category == domain.CategoryUncategorized {
		if cat, ok := categoryFromMention(rec.Title); ok {
			rec.Category = cat
			rec.PriorityTier = v.categorizer.TierFor(cat)
			issues = append(issues, domain.Issue{
				Kind:     domain.IssueRepaired,
				Source:   rec.Source,
				TenderID: rec.TenderID,
				Message:  fmt.Sprintf("category overridden to %s from direct title mention", cat),
			})
		}
	}

	if rec.ClosingDate == nil {
		rec.DaysRemaining = nil
		issues = append(issues, domain.Issue{
			Kind:     domain.IssueManualReview,
			Source:   rec.Source,
			TenderID: rec.TenderID,
			Message:  fmt.Sprintf("closing date unparseable, flagged for manual review: %q", raw.Closing),
			Snippet:  snippet(raw),
		})
	}

	if v.descriptionCap > 0 && len(rec.Description) > v.descriptionCap {
		rec.Description = rec.Description[:v.descriptionCap]
	}

	return &rec, issues
}

// buyerFromTitle extracts a procuring organization from a recognizable title
// prefix such as "National Treasury: Provision of ..." or
// "ERWAT - Supply and delivery ...".
func buyerFromTitle(title string) string {
	for _, sep := range []string{":", " - ", " – "} {
		idx := strings.Index(title, sep)
		if idx <= 0 {
			continue
		}
		prefix := strings.TrimSpace(title[:idx])
		if len(prefix) < 3 || len(prefix) > 80 {
			continue
		}
		if strings.Count(prefix, " ") > 7 {
			continue
		}
		return prefix
	}
	return ""
}

func categoryFromMention(title string) (domain.Category, bool) {
	text := strings.ToLower(title)
	for _, m := range directMentions {
		if strings.Contains(text, m.phrase) {
			return m.category, true
		}
	}
	return domain.CategoryUncategorized, false
}

func missingFields(err error) string {
	var fields []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field()))
		}
	}
	if len(fields) == 0 {
		return err.Error()
	}
	return strings.Join(fields, ", ")
}

func snippet(raw domain.RawCandidate) string {
	if raw.Snippet != "" {
		return truncate(raw.Snippet, 200)
	}
	return truncate(fmt.Sprintf("title=%q buyer=%q closing=%q", raw.Title, raw.Buyer, raw.Closing), 200)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
