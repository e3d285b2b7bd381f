package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"tendertracker/internal/domain"
	"tendertracker/internal/ports"
)

// renderFunc drives a browser to a URL, waits for selector, and returns the
// rendered page HTML. Injectable so tests run without Chrome.
type renderFunc func(ctx context.Context, url, selector string) (string, error)

// TransnetAdapter renders the JavaScript-populated advertised-tenders page in
// headless Chrome and extracts the table rows. This is the most failure-prone
// source; every failure path resolves to ErrSourceUnavailable within the
// configured timeout so the rest of the run keeps going.
type TransnetAdapter struct {
	url          string
	waitSelector string
	timeout      time.Duration
	render       renderFunc
	logger       *slog.Logger
}

var _ ports.SourceAdapter = (*TransnetAdapter)(nil)

// NewTransnetAdapter wires the browser-backed scraper. timeout is the hard
// ceiling for navigation plus render.
func NewTransnetAdapter(url, waitSelector string, timeout time.Duration, logger *slog.Logger) *TransnetAdapter {
	if waitSelector == "" {
		waitSelector = "table#_advertisedTenders"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TransnetAdapter{
		url:          url,
		waitSelector: waitSelector,
		timeout:      timeout,
		render:       renderWithChrome,
		logger:       logger,
	}
}

// Source identifies the adapter.
func (a *TransnetAdapter) Source() domain.Source {
	return domain.SourceBrowser
}

// Fetch renders the page and parses the tender table. Timeout or navigation
// failure maps to ErrSourceUnavailable; malformed rows are skipped and
// counted.
func (a *TransnetAdapter) Fetch(ctx context.Context) (ports.FetchResult, error) {
	var result ports.FetchResult

	renderCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	html, err := a.render(renderCtx, a.url, a.waitSelector)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return result, fmt.Errorf("%w: transnet render timed out after %s", domain.ErrSourceUnavailable, a.timeout)
		}
		return result, fmt.Errorf("%w: transnet render: %v", domain.ErrSourceUnavailable, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return result, fmt.Errorf("%w: transnet parse: %v", domain.ErrSourceUnavailable, err)
	}

	result.Candidates, result.Skipped = a.extractRows(doc)
	a.debug("transnet fetch done", "candidates", len(result.Candidates), "skipped", result.Skipped)
	return result, nil
}

func (a *TransnetAdapter) extractRows(doc *goquery.Document) ([]domain.RawCandidate, int) {
	var collected []domain.RawCandidate
	skipped := 0

	doc.Find("table#_advertisedTenders tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header
		}

		cols := row.Find("td")
		if cols.Length() < 4 {
			skipped++
			return
		}

		title := strings.TrimSpace(cols.Eq(1).Text())
		if title == "" || strings.Contains(strings.ToLower(title), "no tenders") {
			skipped++
			return
		}

		rawID := strings.TrimSpace(cols.Eq(0).Text())
		division := strings.TrimSpace(cols.Eq(2).Text())
		closing := strings.TrimSpace(cols.Eq(3).Text())

		link, _ := cols.Eq(1).Find("a[href]").First().Attr("href")

		snippet, _ := goquery.OuterHtml(row)

		collected = append(collected, domain.RawCandidate{
			Source:       domain.SourceBrowser,
			TenderID:     fmt.Sprintf("TN-%d-%s", time.Now().UTC().Year(), rawID),
			Title:        title,
			Buyer:        strings.TrimSpace("Transnet " + division),
			Closing:      closing,
			Description:  title,
			DocumentLink: link,
			Snippet:      strings.TrimSpace(snippet),
		})
	})

	return collected, skipped
}

// renderWithChrome runs a one-shot headless Chrome session: navigate, wait for
// the tender table to appear, give the rows a moment to populate, then grab
// the DOM.
func renderWithChrome(ctx context.Context, url, selector string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}

func (a *TransnetAdapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
