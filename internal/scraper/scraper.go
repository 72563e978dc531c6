package scraper

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/samvad-hq/zshort-go/pkg/httpclient"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
	defaultTimeout   = 10 * time.Second
	userAgent        = "zshort-go (+https://github.com/samvad-hq/zshort-go)"
)

// Scraper fetches target pages and extracts a human-readable title.
type Scraper struct {
	client httpclient.Client
}

// New constructs a scraper with the provided HTTP client (or default).
func New(client httpclient.Client) *Scraper {
	if client == nil {
		client = httpclient.NewRestyClient(defaultTimeout)
	}
	return &Scraper{client: client}
}

// Title fetches pageURL and returns its og:title, falling back to <title>.
func (s *Scraper) Title(ctx context.Context, pageURL string) (string, error) {
	headers := map[string]string{
		"User-Agent": userAgent,
		"Accept":     "text/html,application/xhtml+xml",
	}

	resp, err := s.client.Get(ctx, pageURL, headers)
	if err != nil {
		return "", fmt.Errorf("http fetch: %w", err)
	}

	if resp.StatusCode() != 200 {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return "", fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	return parseTitle(body)
}

func parseTitle(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var og string
	if node := doc.Find(`meta[property="og:title"]`).First(); node.Length() > 0 {
		og, _ = node.Attr("content")
	}

	return firstNonEmpty(
		og,
		doc.Find("title").First().Text(),
	), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
