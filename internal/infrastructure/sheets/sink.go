package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tendertracker/internal/domain"
	"tendertracker/internal/ports"
)

// Columns is the fixed order the spreadsheet expects rows in.
var Columns = []string{
	"Date_Scraped", "Source", "Tender_ID", "Title", "Buyer", "Category",
	"Closing_Date", "Days_Remaining", "Value_ZAR", "Description",
	"Document_Link", "Status", "Priority_Buyer", "Alert_Sent",
}

// Sink submits records to the spreadsheet web app, one JSON object per
// record, matching the app's wire contract exactly.
type Sink struct {
	endpoint string
	token    string
	client   *http.Client
}

var _ ports.TenderSink = (*Sink)(nil)

// New wires the web-app endpoint.
func New(endpoint, token string) *Sink {
	return &Sink{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// wireRecord is the web app's field-for-field record shape.
type wireRecord struct {
	DateScraped   string   `json:"date_scraped"`
	Source        string   `json:"source"`
	TenderID      string   `json:"tender_id"`
	Title         string   `json:"title"`
	Buyer         string   `json:"buyer"`
	Category      string   `json:"category"`
	ClosingDate   string   `json:"closing_date"`
	DaysRemaining *int     `json:"days_remaining"`
	ValueZAR      float64  `json:"value_zar"`
	Description   string   `json:"description"`
	DocumentLink  string   `json:"document_link"`
	Status        string   `json:"status"`
	PriorityBuyer bool     `json:"priority_buyer"`
}

type wireResponse struct {
	Result   string `json:"result"`
	TenderID string `json:"tender_id"`
	Error    string `json:"error"`
}

type keysResponse struct {
	Keys []struct {
		Source   string `json:"source"`
		TenderID string `json:"tender_id"`
	} `json:"keys"`
}

// ExistingKeys pulls the identity keys already stored in the sheet.
func (s *Sink) ExistingKeys(ctx context.Context) ([]domain.Key, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?action=keys", nil)
	if err != nil {
		return nil, fmt.Errorf("build keys request: %w", err)
	}
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch existing keys: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheet keys endpoint returned %s", resp.Status)
	}

	var parsed keysResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode keys: %w", err)
	}

	keys := make([]domain.Key, 0, len(parsed.Keys))
	for _, k := range parsed.Keys {
		keys = append(keys, domain.Key{Source: domain.Source(k.Source), TenderID: k.TenderID})
	}
	return keys, nil
}

// Append submits each record in order. The first failed submission aborts the
// batch and wraps ErrPersistence; the caller retries the whole run rather
// than resuming mid-batch.
func (s *Sink) Append(ctx context.Context, records []domain.TenderRecord) error {
	for _, rec := range records {
		if err := s.submit(ctx, rec); err != nil {
			return fmt.Errorf("%w: tender %s: %v", domain.ErrPersistence, rec.TenderID, err)
		}
	}
	return nil
}

func (s *Sink) submit(ctx context.Context, rec domain.TenderRecord) error {
	body, err := json.Marshal(toWire(rec))
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("submit record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("web app error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if parsed.Result != "success" {
		return fmt.Errorf("web app rejected record: %s", parsed.Error)
	}
	return nil
}

func (s *Sink) authorize(req *http.Request) {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
}

func toWire(rec domain.TenderRecord) wireRecord {
	closing := ""
	if rec.ClosingDate != nil {
		closing = rec.ClosingDate.Format("2006-01-02")
	}
	return wireRecord{
		DateScraped:   rec.DateScraped.Format("2006-01-02"),
		Source:        string(rec.Source),
		TenderID:      rec.TenderID,
		Title:         rec.Title,
		Buyer:         rec.Buyer,
		Category:      string(rec.Category),
		ClosingDate:   closing,
		DaysRemaining: rec.DaysRemaining,
		ValueZAR:      rec.ValueZAR,
		Description:   rec.Description,
		DocumentLink:  rec.DocumentLink,
		Status:        rec.Status,
		PriorityBuyer: rec.PriorityBuyer,
	}
}

// Row serializes a record into the sheet's fixed column order. Days remaining
// for an undated tender stays blank, and display clamps negatives at zero.
func Row(rec domain.TenderRecord) []string {
	closing := ""
	if rec.ClosingDate != nil {
		closing = rec.ClosingDate.Format("2006-01-02")
	}

	days := ""
	if rec.DaysRemaining != nil {
		d := *rec.DaysRemaining
		if d < 0 {
			d = 0
		}
		days = strconv.Itoa(d)
	}

	priority := "No"
	if rec.PriorityBuyer {
		priority = "Yes"
	}

	return []string{
		rec.DateScraped.Format("2006-01-02"),
		string(rec.Source),
		rec.TenderID,
		rec.Title,
		rec.Buyer,
		string(rec.Category),
		closing,
		days,
		strconv.FormatFloat(rec.ValueZAR, 'f', 2, 64),
		rec.Description,
		rec.DocumentLink,
		rec.Status,
		priority,
		"No",
	}
}
