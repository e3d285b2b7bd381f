package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tendertracker/internal/domain"
)

const cardsHTML = `
<div class="results">
  <div class="tender">
    <div class="text-dark">Insurance broker panel appointment</div>
    <div class="text-primary">National Treasury</div>
    <div class="closing-date">Closing: 18 Mar</div>
    <a href="/tender/123">View</a>
  </div>
  <div class="tender">
    <div class="text-primary">Orphan buyer, no title</div>
  </div>
  <div class="tender">
    <div class="font-size-14">Grounds maintenance at depot</div>
    <div class="closing-date">Closing: 22 Mar</div>
    <a href="https://docs.example.org/t/9">View</a>
  </div>
</div>`

func TestEasyTendersExtractCards(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, cardsHTML)
	}))
	defer server.Close()

	adapter := NewEasyTendersAdapter(server.URL, []string{"insurance"}, server.Client(), nil)

	result, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(result.Candidates))
	}
	if result.Skipped != 1 {
		t.Fatalf("expected 1 skipped malformed card, got %d", result.Skipped)
	}

	first := result.Candidates[0]
	if first.Title != "Insurance broker panel appointment" {
		t.Fatalf("unexpected title: %s", first.Title)
	}
	if first.Buyer != "National Treasury" {
		t.Fatalf("unexpected buyer: %s", first.Buyer)
	}
	if first.Closing != "18 Mar" {
		t.Fatalf("closing prefix not stripped: %q", first.Closing)
	}
	if !strings.HasPrefix(first.TenderID, "EZ-") {
		t.Fatalf("unexpected synthetic ID: %s", first.TenderID)
	}
	if !strings.HasPrefix(first.DocumentLink, server.URL+"/tender/") {
		t.Fatalf("relative link not resolved: %s", first.DocumentLink)
	}

	// Second card has no buyer column; the field stays empty rather than the
	// row failing.
	if result.Candidates[1].Buyer != "" {
		t.Fatalf("expected empty buyer, got %q", result.Candidates[1].Buyer)
	}
}

func TestEasyTendersDeduplicatesAcrossTerms(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, cardsHTML)
	}))
	defer server.Close()

	adapter := NewEasyTendersAdapter(server.URL, []string{"insurance", "broker", "cleaning"}, server.Client(), nil)

	result, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("same cards from 3 searches must collapse to 2, got %d", len(result.Candidates))
	}
}

func TestEasyTendersAllTermsFailing(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	adapter := NewEasyTendersAdapter(server.URL, []string{"insurance", "audit"}, server.Client(), nil)

	if _, err := adapter.Fetch(context.Background()); !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestEasyTendersToleratesPartialTermFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search") == "audit" {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, cardsHTML)
	}))
	defer server.Close()

	adapter := NewEasyTendersAdapter(server.URL, []string{"insurance", "audit"}, server.Client(), nil)

	result, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("one failed term must not fail the fetch: %v", err)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(result.Candidates))
	}
}
