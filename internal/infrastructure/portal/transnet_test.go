package portal

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tendertracker/internal/domain"
)

const transnetHTML = `
<html><body>
<table id="_advertisedTenders">
  <tr><th>Tender No</th><th>Description</th><th>Division</th><th>Closing</th></tr>
  <tr>
    <td>HOAC-123</td>
    <td><a href="/Home/TenderDetails/123">Provision of marine insurance</a></td>
    <td>Port Terminals</td>
    <td>18/03/2026</td>
  </tr>
  <tr><td>BAD-ROW</td><td></td></tr>
  <tr>
    <td>HOAC-124</td>
    <td>Refurbishment of workshop roofing</td>
    <td>Freight Rail</td>
    <td>25/03/2026</td>
  </tr>
</table>
</body></html>`

func fakeRender(html string, err error) renderFunc {
	return func(ctx context.Context, url, selector string) (string, error) {
		return html, err
	}
}

func TestTransnetExtractRows(t *testing.T) {
	t.Parallel()

	adapter := NewTransnetAdapter("https://example.org/Home/AdvertisedTenders", "", 10*time.Second, nil)
	adapter.render = fakeRender(transnetHTML, nil)

	result, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(result.Candidates))
	}
	if result.Skipped != 1 {
		t.Fatalf("expected 1 skipped malformed row, got %d", result.Skipped)
	}

	first := result.Candidates[0]
	if !strings.HasPrefix(first.TenderID, "TN-") || !strings.HasSuffix(first.TenderID, "HOAC-123") {
		t.Fatalf("unexpected tender ID: %s", first.TenderID)
	}
	if first.Buyer != "Transnet Port Terminals" {
		t.Fatalf("unexpected buyer: %s", first.Buyer)
	}
	if first.Closing != "18/03/2026" {
		t.Fatalf("unexpected closing: %s", first.Closing)
	}
	if first.Source != domain.SourceBrowser {
		t.Fatalf("unexpected source: %s", first.Source)
	}
}

func TestTransnetRenderTimeout(t *testing.T) {
	t.Parallel()

	adapter := NewTransnetAdapter("https://example.org", "", 10*time.Millisecond, nil)
	adapter.render = func(ctx context.Context, url, selector string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}

	_, err := adapter.Fetch(context.Background())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable on timeout, got %v", err)
	}
}

func TestTransnetNavigationFailure(t *testing.T) {
	t.Parallel()

	adapter := NewTransnetAdapter("https://example.org", "", time.Second, nil)
	adapter.render = fakeRender("", errors.New("net::ERR_NAME_NOT_RESOLVED"))

	if _, err := adapter.Fetch(context.Background()); !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestTransnetPlaceholderRowSkipped(t *testing.T) {
	t.Parallel()

	html := `<table id="_advertisedTenders">
	  <tr><th>No</th><th>Description</th><th>Division</th><th>Closing</th></tr>
	  <tr><td></td><td>No tenders available</td><td></td><td></td></tr>
	</table>`

	adapter := NewTransnetAdapter("https://example.org", "", time.Second, nil)
	adapter.render = fakeRender(html, nil)

	result, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(result.Candidates) != 0 {
		t.Fatalf("placeholder row must be skipped, got %d candidates", len(result.Candidates))
	}
}
