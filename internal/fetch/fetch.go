package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// Page is the result of fetching and converting a single URL.
type Page struct {
	URL      string
	Title    string
	Markdown string
}

// Client fetches pages and converts their main content to Markdown,
// grounded on the teacher's document-ingestion pipeline (the only
// surviving trace of which is internal/storage/badger/document_storage.go's
// stored-document shape; the scrape-and-convert step itself is rebuilt
// here from goquery's and html-to-markdown's own documented APIs, since
// the teacher's connector code that drove them was deleted as
// app-specific — see DESIGN.md).
type Client struct {
	http      *http.Client
	converter *md.Converter
}

// New builds a fetch Client with a bounded per-request timeout.
func New(timeout time.Duration) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		converter: md.NewConverter("", true, nil),
	}
}

// Fetch retrieves url, extracts the <title> and <main> (or <body>)
// content, and converts that HTML fragment to Markdown.
func (c *Client) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	content := doc.Find("main")
	if content.Length() == 0 {
		content = doc.Find("body")
	}
	html, err := content.Html()
	if err != nil {
		return nil, fmt.Errorf("extract content from %s: %w", url, err)
	}

	markdown, err := c.converter.ConvertString(html)
	if err != nil {
		return nil, fmt.Errorf("convert %s to markdown: %w", url, err)
	}

	return &Page{URL: url, Title: title, Markdown: markdown}, nil
}
