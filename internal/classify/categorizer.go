package classify

import (
	"sort"
	"strings"

	"tendertracker/internal/domain"
)

// Rule binds a category label to its case-insensitive trigger phrases and a
// priority rank. Lower rank means higher priority.
type Rule struct {
	Label    domain.Category
	Keywords []string
	Rank     int
}

// Categorizer maps free text onto zero-or-one category. Rules are evaluated
// strictly in ascending rank, so a title matching both insurance and
// construction always resolves to insurance regardless of declaration order.
type Categorizer struct {
	rules      []Rule
	lowestTier int
	buyers     []string
}

// New compiles rules and the priority-buyer list. Keywords and buyer names
// are lowercased once here so matching stays allocation-free per record.
func New(rules []Rule, priorityBuyers []string) *Categorizer {
	compiled := make([]Rule, len(rules))
	lowest := 0
	for i, rule := range rules {
		keywords := make([]string, len(rule.Keywords))
		for j, kw := range rule.Keywords {
			keywords[j] = strings.ToLower(kw)
		}
		compiled[i] = Rule{Label: rule.Label, Keywords: keywords, Rank: rule.Rank}
		if rule.Rank > lowest {
			lowest = rule.Rank
		}
	}
	sort.SliceStable(compiled, func(i, j int) bool { return compiled[i].Rank < compiled[j].Rank })

	buyers := make([]string, len(priorityBuyers))
	for i, b := range priorityBuyers {
		buyers[i] = strings.ToLower(b)
	}

	return &Categorizer{rules: compiled, lowestTier: lowest + 1, buyers: buyers}
}

// Categorize scans title first, then description, for trigger phrases. The
// first rule in rank order with any hit wins. No hit reports uncategorized at
// the lowest tier; that is an outcome, not an error.
func (c *Categorizer) Categorize(title, description string) (domain.Category, int) {
	titleText := strings.ToLower(title)
	descText := strings.ToLower(description)

	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(titleText, kw) || strings.Contains(descText, kw) {
				return rule.Label, rule.Rank
			}
		}
	}
	return domain.CategoryUncategorized, c.lowestTier
}

// LowestTier is the rank reported for uncategorized records.
func (c *Categorizer) LowestTier() int {
	return c.lowestTier
}

// TierFor returns the rank of a category label, or the lowest tier for
// labels the rule set does not know.
func (c *Categorizer) TierFor(category domain.Category) int {
	for _, rule := range c.rules {
		if rule.Label == category {
			return rule.Rank
		}
	}
	return c.lowestTier
}

// IsPriorityBuyer reports whether buyer matches the maintained priority list,
// case-insensitively, by substring in either direction.
func (c *Categorizer) IsPriorityBuyer(buyer string) bool {
	if buyer == "" {
		return false
	}
	text := strings.ToLower(buyer)
	for _, pb := range c.buyers {
		if strings.Contains(text, pb) {
			return true
		}
	}
	return false
}
