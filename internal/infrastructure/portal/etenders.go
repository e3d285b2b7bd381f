package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tendertracker/internal/domain"
	"tendertracker/internal/ports"
)

const userAgent = "TenderTracker/1.0"

// ETendersAdapter queries the portal's JSON opportunities endpoint and walks
// pages until exhausted.
type ETendersAdapter struct {
	baseURL  string
	pageSize int
	client   *http.Client
	logger   *slog.Logger
}

var _ ports.SourceAdapter = (*ETendersAdapter)(nil)

// NewETendersAdapter wires an HTTP client; pageSize defaults to 100.
func NewETendersAdapter(baseURL string, pageSize int, client *http.Client, logger *slog.Logger) *ETendersAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	return &ETendersAdapter{baseURL: strings.TrimSuffix(baseURL, "/"), pageSize: pageSize, client: client, logger: logger}
}

// Source identifies the adapter.
func (a *ETendersAdapter) Source() domain.Source {
	return domain.SourceAPI
}

// apiTender is the portal's wire shape for one listing.
type apiTender struct {
	TenderNo     string `json:"tender_No"`
	Description  string `json:"description"`
	OrganOfState string `json:"organ_of_State"`
	ClosingDate  string `json:"closing_Date"`
	DocumentURL  string `json:"document_Url"`
	Services     string `json:"place_Services_Required"`
}

type apiPage struct {
	Tenders []apiTender `json:"tenders"`
	Total   int         `json:"total"`
}

// Fetch paginates through open opportunities. A failure on the first page
// wraps domain.ErrSourceUnavailable; a failure mid-pagination returns the
// pages already collected together with the error, so partial data is never
// discarded.
func (a *ETendersAdapter) Fetch(ctx context.Context) (ports.FetchResult, error) {
	var result ports.FetchResult

	for page := 1; ; page++ {
		batch, total, err := a.fetchPage(ctx, page)
		if err != nil {
			if len(result.Candidates) == 0 {
				return result, fmt.Errorf("%w: etenders page %d: %v", domain.ErrSourceUnavailable, page, err)
			}
			a.debug("pagination aborted, keeping fetched pages", "page", page, "collected", len(result.Candidates), "error", err)
			return result, fmt.Errorf("%w: etenders page %d after %d candidates: %v",
				domain.ErrSourceUnavailable, page, len(result.Candidates), err)
		}

		for _, t := range batch {
			result.Candidates = append(result.Candidates, a.toCandidate(t))
		}

		if len(batch) < a.pageSize {
			break
		}
		if total > 0 && len(result.Candidates) >= total {
			break
		}
	}

	a.debug("etenders fetch done", "candidates", len(result.Candidates))
	return result, nil
}

func (a *ETendersAdapter) fetchPage(ctx context.Context, page int) ([]apiTender, int, error) {
	endpoint, err := url.Parse(a.baseURL + "/api/tenders")
	if err != nil {
		return nil, 0, fmt.Errorf("invalid base url: %w", err)
	}
	query := endpoint.Query()
	query.Set("status", "advertised")
	query.Set("pageNumber", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(a.pageSize))
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("etenders returned %s", resp.Status)
	}

	var parsed apiPage
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("decode page: %w", err)
	}

	return parsed.Tenders, parsed.Total, nil
}

func (a *ETendersAdapter) toCandidate(t apiTender) domain.RawCandidate {
	description := t.Services
	if description == "" {
		description = t.Description
	}

	link := t.DocumentURL
	if link != "" && strings.HasPrefix(link, "/") {
		link = a.baseURL + link
	}

	return domain.RawCandidate{
		Source:       domain.SourceAPI,
		TenderID:     strings.TrimSpace(t.TenderNo),
		Title:        strings.TrimSpace(t.Description),
		Buyer:        strings.TrimSpace(t.OrganOfState),
		Closing:      strings.TrimSpace(t.ClosingDate),
		Description:  strings.TrimSpace(description),
		DocumentLink: link,
	}
}

func (a *ETendersAdapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
