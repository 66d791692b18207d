package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"lazy-receipt-go/internal/model"
)

// linkAnchorText marks anchors that point at a downloadable invoice.
const linkAnchorText = "Download PDF invoice"

// ErrLinkFetch reports a non-2xx response for an embedded PDF link.
var ErrLinkFetch = fmt.Errorf("link fetch failed")

// ExtractPDFInvoiceURLs scans an HTML body for anchors whose visible text
// contains the invoice-download phrase and returns their targets.
func ExtractPDFInvoiceURLs(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logrus.Warnf("Failed to parse HTML body for invoice links: %v", err)
		return nil
	}

	var urls []string
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		if !strings.Contains(sel.Text(), linkAnchorText) {
			return
		}
		if href, ok := sel.Attr("href"); ok {
			urls = append(urls, href)
		}
	})
	logrus.Infof("Found %d PDF invoice URLs in email body", len(urls))
	return urls
}

// LinkFetcher downloads embedded invoice PDFs over HTTP.
type LinkFetcher struct {
	client *http.Client
}

// NewLinkFetcher creates a link fetcher with the given timeout.
func NewLinkFetcher(timeout time.Duration) *LinkFetcher {
	return &LinkFetcher{client: &http.Client{Timeout: timeout}}
}

// FetchAll downloads every URL, returning one outcome per URL. A non-2xx
// response is a hard failure for that candidate only.
func (f *LinkFetcher) FetchAll(ctx context.Context, urls []string) []Outcome {
	outcomes := make([]Outcome, 0, len(urls))
	for _, url := range urls {
		name := linkCandidateName()
		body, err := f.fetch(ctx, url)
		if err != nil {
			logrus.Errorf("Failed to fetch invoice link %s: %v", url, err)
			outcomes = append(outcomes, Outcome{
				Candidate: model.Candidate{Name: name},
				Err:       err,
			})
			continue
		}
		outcomes = append(outcomes, Outcome{Candidate: model.Candidate{
			Name:        name,
			ContentType: "application/pdf",
			Binary:      body,
		}})
	}
	return outcomes
}

func (f *LinkFetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLinkFetch, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLinkFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrLinkFetch, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Synthetic candidates get a short random suffix so names stay unique within
// one processing run.
func linkCandidateName() string {
	return fmt.Sprintf("eml_att_%d_%s.pdf", time.Now().UTC().UnixNano(), uuid.NewString()[:8])
}

func renderedBodyName() string {
	return fmt.Sprintf("eml_body_%d_%s.png", time.Now().UTC().UnixNano(), uuid.NewString()[:8])
}
