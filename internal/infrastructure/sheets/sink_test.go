package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tendertracker/internal/domain"
)

func sampleRecord() domain.TenderRecord {
	closing := time.Date(2026, time.March, 18, 0, 0, 0, 0, time.UTC)
	days := 20
	return domain.TenderRecord{
		Source:        domain.SourceAPI,
		TenderID:      "RFP-001",
		Title:         "Insurance broker panel",
		Buyer:         "National Treasury",
		Category:      domain.CategoryInsurance,
		ClosingDate:   &closing,
		DaysRemaining: &days,
		Description:   "Insurance broker panel",
		DocumentLink:  "https://example.org/rfp-001",
		Status:        "New",
		DateScraped:   time.Date(2026, time.February, 26, 0, 0, 0, 0, time.UTC),
		PriorityBuyer: true,
	}
}

func TestAppendSubmitsWireShape(t *testing.T) {
	t.Parallel()

	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, `{"result":"success","tender_id":"RFP-001"}`)
	}))
	defer server.Close()

	sink := New(server.URL, "")
	if err := sink.Append(context.Background(), []domain.TenderRecord{sampleRecord()}); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	for _, field := range []string{
		"date_scraped", "source", "tender_id", "title", "buyer", "category",
		"closing_date", "days_remaining", "value_zar", "description",
		"document_link", "status", "priority_buyer",
	} {
		if _, ok := got[field]; !ok {
			t.Fatalf("wire record missing field %s", field)
		}
	}
	if got["closing_date"] != "2026-03-18" {
		t.Fatalf("unexpected closing_date: %v", got["closing_date"])
	}
	if got["priority_buyer"] != true {
		t.Fatalf("unexpected priority_buyer: %v", got["priority_buyer"])
	}
}

func TestAppendRejection(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":"error","error":"sheet locked"}`)
	}))
	defer server.Close()

	sink := New(server.URL, "")
	err := sink.Append(context.Background(), []domain.TenderRecord{sampleRecord()})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestExistingKeys(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") != "keys" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"keys":[{"source":"eTenders.gov.za","tender_id":"RFP-001"},{"source":"Transnet","tender_id":"TN-2026-7"}]}`)
	}))
	defer server.Close()

	sink := New(server.URL, "secret")
	keys, err := sink.ExistingKeys(context.Background())
	if err != nil {
		t.Fatalf("ExistingKeys error: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if keys[0] != (domain.Key{Source: domain.SourceAPI, TenderID: "RFP-001"}) {
		t.Fatalf("unexpected key: %+v", keys[0])
	}
}

func TestRowColumnOrder(t *testing.T) {
	t.Parallel()

	row := Row(sampleRecord())
	if len(row) != len(Columns) {
		t.Fatalf("row width %d does not match %d columns", len(row), len(Columns))
	}
	if row[0] != "2026-02-26" || row[2] != "RFP-001" || row[12] != "Yes" || row[13] != "No" {
		t.Fatalf("unexpected row layout: %v", row)
	}
}

func TestRowUndatedAndExpired(t *testing.T) {
	t.Parallel()

	rec := sampleRecord()
	rec.ClosingDate = nil
	rec.DaysRemaining = nil
	row := Row(rec)
	if row[6] != "" || row[7] != "" {
		t.Fatalf("undated record must serialize blank date columns, got %q %q", row[6], row[7])
	}

	rec = sampleRecord()
	expired := -3
	rec.DaysRemaining = &expired
	row = Row(rec)
	if row[7] != "0" {
		t.Fatalf("negative days must clamp to 0 for display, got %q", row[7])
	}
}
