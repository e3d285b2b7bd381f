package classify

import (
	"testing"

	"tendertracker/internal/domain"
)

func testRules() []Rule {
	return []Rule{
		{Label: domain.CategoryConstruction, Keywords: []string{"construction", "building", "structural"}, Rank: 5},
		{Label: domain.CategoryInsurance, Keywords: []string{"insurance", "broker", "underwriting"}, Rank: 1},
		{Label: domain.CategoryCivil, Keywords: []string{"civil engineering", "roads", "structural"}, Rank: 3},
	}
}

func TestCategorize(t *testing.T) {
	t.Parallel()

	c := New(testRules(), nil)

	cat, tier := c.Categorize("Insurance broker panel appointment", "")
	if cat != domain.CategoryInsurance || tier != 1 {
		t.Fatalf("expected insurance tier 1, got %s tier %d", cat, tier)
	}

	cat, tier = c.Categorize("Supply of stationery", "office consumables")
	if cat != domain.CategoryUncategorized {
		t.Fatalf("expected uncategorized, got %s", cat)
	}
	if tier != c.LowestTier() {
		t.Fatalf("expected lowest tier %d, got %d", c.LowestTier(), tier)
	}
}

func TestCategorizeRankBreaksTies(t *testing.T) {
	t.Parallel()

	c := New(testRules(), nil)

	// "structural" triggers both civil_engineering (rank 3) and construction
	// (rank 5); rank order must win over declaration order.
	cat, tier := c.Categorize("Structural repairs to depot", "")
	if cat != domain.CategoryCivil || tier != 3 {
		t.Fatalf("expected civil_engineering tier 3, got %s tier %d", cat, tier)
	}
}

func TestCategorizeIsDeterministic(t *testing.T) {
	t.Parallel()

	c := New(testRules(), nil)

	first, _ := c.Categorize("building and roads maintenance", "structural works")
	for i := 0; i < 10; i++ {
		got, _ := c.Categorize("building and roads maintenance", "structural works")
		if got != first {
			t.Fatalf("categorization unstable: %s then %s", first, got)
		}
	}
}

func TestCategorizeDescriptionFallback(t *testing.T) {
	t.Parallel()

	c := New(testRules(), nil)

	cat, _ := c.Categorize("Request for proposals", "underwriting services for motor fleet")
	if cat != domain.CategoryInsurance {
		t.Fatalf("expected insurance from description, got %s", cat)
	}
}

func TestIsPriorityBuyer(t *testing.T) {
	t.Parallel()

	c := New(nil, []string{"National Treasury", "CIDB"})

	if !c.IsPriorityBuyer("NATIONAL TREASURY") {
		t.Fatal("case-insensitive match failed")
	}
	if !c.IsPriorityBuyer("The National Treasury of South Africa") {
		t.Fatal("substring match failed")
	}
	if c.IsPriorityBuyer("Dept of Health") {
		t.Fatal("unexpected match")
	}
	if c.IsPriorityBuyer("") {
		t.Fatal("empty buyer must not match")
	}
}
