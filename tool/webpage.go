package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/jsonschema-go/jsonschema"
)

// ReadWebpageName is the name of the tool built by NewReadWebpageTool.
const ReadWebpageName = "read_webpage"

// maxPageBytes caps the size of a downloaded page.
const maxPageBytes = 4 << 20

// Page is the readable text of a web page.
type Page struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	Truncated bool   `json:"truncated,omitempty"`
}

// FetchPage downloads rawURL and extracts its title and visible text. Text is
// cut to maxChars runes when maxChars is positive.
func FetchPage(ctx context.Context, client *http.Client, rawURL string, maxChars int) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("User-Agent", "collabgraph/1.0")

	resp, err := httpClient(client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", rawURL, err)
	}
	doc.Find("script, style, noscript, svg, iframe, nav, footer").Remove()

	page := &Page{
		URL:   rawURL,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	var blocks []string
	doc.Find("body").Find("h1, h2, h3, h4, h5, h6, p, li, pre, td, blockquote").Each(func(_ int, s *goquery.Selection) {
		// Nested matches are collected through their outermost block
		if s.ParentsFiltered("p, li, pre, td, blockquote").Length() > 0 {
			return
		}
		if text := collapseSpace(s.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})
	if len(blocks) == 0 {
		if text := collapseSpace(doc.Find("body").Text()); text != "" {
			blocks = append(blocks, text)
		}
	}
	page.Text = strings.Join(blocks, "\n")

	if maxChars > 0 {
		if runes := []rune(page.Text); len(runes) > maxChars {
			page.Text = string(runes[:maxChars])
			page.Truncated = true
		}
	}
	return page, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NewReadWebpageTool exposes FetchPage as the read_webpage tool.
func NewReadWebpageTool(client *http.Client, maxChars int) Descriptor {
	return Descriptor{
		Name:        ReadWebpageName,
		Description: "Download a web page and return its title and readable text.",
		Schema: ObjectSchema(map[string]*jsonschema.Schema{
			"url": {Type: "string", Description: "Absolute http or https URL"},
		}, "url"),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			rawURL, _ := args["url"].(string)
			return FetchPage(ctx, client, rawURL, maxChars)
		},
	}
}
