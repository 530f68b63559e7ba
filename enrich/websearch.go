package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// searchUserAgent identifies the client to the search backend.
const searchUserAgent = "wayplan/1.0 (+https://github.com/wayplan/wayplan)"

// maxSearchBodySize limits the result page size.
const maxSearchBodySize = 2 * 1024 * 1024 // 2MB

// SearchClient queries the DuckDuckGo HTML endpoint, which needs no API key,
// and normalizes results into Snippets.
type SearchClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSearchClient creates a search client. baseURL is empty for the public
// endpoint; tests point it at a local server.
func NewSearchClient(baseURL string, timeout time.Duration) *SearchClient {
	if baseURL == "" {
		baseURL = "https://html.duckduckgo.com/html/"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SearchClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search fetches up to max results for the query, preserving the upstream
// relevance order and deduplicating by source URL.
func (c *SearchClient) Search(ctx context.Context, query string, max int) ([]Snippet, error) {
	if max <= 0 {
		max = 5
	}

	reqURL := c.baseURL + "?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("User-Agent", searchUserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSearchBodySize))
	if err != nil {
		return nil, fmt.Errorf("read search body: %w", err)
	}

	results := parseSearchResults(body)

	// Dedupe by URL, keep relevance order, cap at max.
	seen := make(map[string]bool, len(results))
	out := make([]Snippet, 0, max)
	for _, r := range results {
		if r.SourceURL == "" || seen[r.SourceURL] {
			continue
		}
		seen[r.SourceURL] = true
		out = append(out, r)
		if len(out) >= max {
			break
		}
	}

	return out, nil
}

// parseSearchResults walks the DuckDuckGo HTML result page. Result links
// carry class "result__a"; snippets carry class "result__snippet".
func parseSearchResults(body []byte) []Snippet {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil
	}

	var results []Snippet
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "result__a") {
			title := strings.TrimSpace(nodeText(n))
			link := resolveResultURL(attrValue(n, "href"))
			if title != "" && link != "" {
				results = append(results, Snippet{Title: title, SourceURL: link})
			}
		}
		if n.Type == html.ElementNode && hasClass(n, "result__snippet") {
			// Attach the snippet to the most recent result.
			if len(results) > 0 && results[len(results)-1].Snippet == "" {
				results[len(results)-1].Snippet = strings.TrimSpace(nodeText(n))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return results
}

// resolveResultURL unwraps DuckDuckGo redirect links
// (//duckduckgo.com/l/?uddg=<escaped>) into the target URL.
func resolveResultURL(href string) string {
	if href == "" {
		return ""
	}

	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	// Query().Get already percent-decodes the redirect target; unescaping
	// again would corrupt "+" and literal %xx sequences in the target URL.
	if uddg := parsed.Query().Get("uddg"); uddg != "" {
		if target, err := url.Parse(uddg); err == nil && (target.Scheme == "http" || target.Scheme == "https") {
			return uddg
		}
		return ""
	}

	if parsed.Scheme == "http" || parsed.Scheme == "https" {
		return href
	}

	return ""
}

// hasClass checks whether a node's class attribute contains the given class.
func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

// attrValue returns the value of the named attribute.
func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeText collects the text content beneath a node.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
