// Package meta resolves display metadata (page titles) for verdict source
// URLs. It is a thin collaborator: every failure degrades to an empty
// title, never an error the caller must handle.
package meta

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/net/html"

	"github.com/ppiankov/veracity/internal/util"
)

// Fetcher fetches source page titles, honoring robots.txt per host
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64

	mu     sync.RWMutex
	robots map[string]*robotstxt.RobotsData
}

// NewFetcher creates a metadata fetcher
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, httpProxy, httpsProxy, noProxy string) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = 512 * 1024
	}
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpProxy, httpsProxy, noProxy),
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
		robots:    make(map[string]*robotstxt.RobotsData),
	}
}

// Title fetches the page title for a source URL. Returns "" when the URL is
// unreachable, disallowed by robots.txt, or has no title.
func (f *Fetcher) Title(ctx context.Context, rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ""
	}

	if !f.allowed(ctx, parsed) {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return ""
	}

	return extractTitle(string(body))
}

// allowed checks robots.txt for the URL's host, caching per host. A host
// whose robots.txt cannot be fetched is allowed by default.
func (f *Fetcher) allowed(ctx context.Context, parsed *url.URL) bool {
	data := f.robotsData(ctx, parsed)
	if data == nil {
		return true
	}
	return data.TestAgent(parsed.Path, f.userAgent)
}

func (f *Fetcher) robotsData(ctx context.Context, parsed *url.URL) *robotstxt.RobotsData {
	f.mu.RLock()
	data, cached := f.robots[parsed.Host]
	f.mu.RUnlock()
	if cached {
		return data
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", parsed.Scheme, parsed.Host)
	data = f.fetchRobots(ctx, robotsURL)

	f.mu.Lock()
	f.robots[parsed.Host] = data
	f.mu.Unlock()
	return data
}

func (f *Fetcher) fetchRobots(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return data
}

// extractTitle pulls the first <title> text out of an HTML document
func extractTitle(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(doc)
	return title
}
