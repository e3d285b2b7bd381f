package portal

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"tendertracker/internal/domain"
	"tendertracker/internal/ports"
)

// EasyTendersAdapter scrapes the static-HTML search pages, one query per
// configured search term, and extracts tender cards with goquery.
type EasyTendersAdapter struct {
	baseURL     string
	searchTerms []string
	client      *http.Client
	logger      *slog.Logger
}

var _ ports.SourceAdapter = (*EasyTendersAdapter)(nil)

// NewEasyTendersAdapter wires the scraper with the search terms to fan out
// over (typically the top keywords of each category).
func NewEasyTendersAdapter(baseURL string, searchTerms []string, client *http.Client, logger *slog.Logger) *EasyTendersAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &EasyTendersAdapter{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		searchTerms: searchTerms,
		client:      client,
		logger:      logger,
	}
}

// Source identifies the adapter.
func (a *EasyTendersAdapter) Source() domain.Source {
	return domain.SourceHTML
}

// Fetch runs every search term and merges the results, de-duplicating within
// the adapter by lowercased title+buyer. A failed search term degrades to a
// warning; only zero usable terms (all failed) makes the source unavailable.
// Malformed cards are skipped and counted, never fatal to the batch.
func (a *EasyTendersAdapter) Fetch(ctx context.Context) (ports.FetchResult, error) {
	var result ports.FetchResult
	seen := map[string]struct{}{}
	failedTerms := 0

	for _, term := range a.searchTerms {
		doc, err := a.fetchSearch(ctx, term)
		if err != nil {
			failedTerms++
			a.warn("search term failed", "term", term, "error", err)
			continue
		}

		cards, skipped := a.extractCards(doc)
		result.Skipped += skipped

		for _, cand := range cards {
			key := strings.ToLower(cand.Title + "_" + cand.Buyer)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			result.Candidates = append(result.Candidates, cand)
		}
	}

	if len(a.searchTerms) > 0 && failedTerms == len(a.searchTerms) {
		return result, fmt.Errorf("%w: easytenders: all %d search terms failed", domain.ErrSourceUnavailable, failedTerms)
	}

	a.debug("easytenders fetch done", "candidates", len(result.Candidates), "skipped", result.Skipped)
	return result, nil
}

func (a *EasyTendersAdapter) fetchSearch(ctx context.Context, term string) (*goquery.Document, error) {
	endpoint := fmt.Sprintf("%s/tenders?search=%s", a.baseURL, url.QueryEscape(term))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("easytenders returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func (a *EasyTendersAdapter) extractCards(doc *goquery.Document) ([]domain.RawCandidate, int) {
	var collected []domain.RawCandidate
	skipped := 0

	doc.Find("div.tender").Each(func(i int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find("div.text-dark").First().Text())
		if title == "" {
			title = strings.TrimSpace(card.Find("div.font-size-14").First().Text())
		}
		if title == "" {
			skipped++
			return
		}

		// Buyer and closing date columns are optional on some cards; leave
		// them empty instead of failing the row.
		buyer := strings.TrimSpace(card.Find("div.text-primary").First().Text())

		closing := strings.TrimSpace(card.Find("div.closing-date").First().Text())
		closing = strings.TrimSpace(strings.TrimPrefix(closing, "Closing:"))

		link, _ := card.Find("a[href]").First().Attr("href")
		if strings.HasPrefix(link, "/") {
			link = a.baseURL + link
		}

		snippet, _ := goquery.OuterHtml(card)

		collected = append(collected, domain.RawCandidate{
			Source:       domain.SourceHTML,
			TenderID:     syntheticID("EZ", title),
			Title:        title,
			Buyer:        buyer,
			Closing:      closing,
			Description:  title,
			DocumentLink: link,
			Snippet:      strings.TrimSpace(snippet),
		})
	})

	return collected, skipped
}

// syntheticID derives a stable portal-scoped ID for sources that publish no
// tender number, matching the EZ-<year>-<hash> scheme the sheet already holds.
func syntheticID(prefix, title string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(title))
	return fmt.Sprintf("%s-%d-%04d", prefix, time.Now().UTC().Year(), h.Sum32()%10000)
}

func (a *EasyTendersAdapter) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}

func (a *EasyTendersAdapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
