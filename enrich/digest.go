package enrich

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"
)

// maxDigestBodySize limits the fetched page size.
const maxDigestBodySize = 4 * 1024 * 1024 // 4MB

// Digester fetches a result page, extracts the readable article content,
// and converts it to a bounded markdown digest for prompt embedding.
type Digester struct {
	httpClient *http.Client
	converter  *md.Converter
	maxChars   int
}

// NewDigester creates a page digester. maxChars bounds the digest length.
func NewDigester(timeout time.Duration, maxChars int) *Digester {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxChars <= 0 {
		maxChars = 1200
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &Digester{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (max 5)")
				}
				if err := validatePageURL(req.URL.String()); err != nil {
					return fmt.Errorf("redirect blocked: %w", err)
				}
				return nil
			},
		},
		converter: converter,
		maxChars:  maxChars,
	}
}

// Digest fetches pageURL and returns a markdown digest of its main content.
func (d *Digester) Digest(ctx context.Context, pageURL string) (string, error) {
	if err := validatePageURL(pageURL); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create digest request: %w", err)
	}
	req.Header.Set("User-Agent", searchUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("digest fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("digest HTTP %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") {
		return "", fmt.Errorf("not an HTML page: %s", contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDigestBodySize))
	if err != nil {
		return "", fmt.Errorf("read page body: %w", err)
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page URL: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return "", fmt.Errorf("extract article: %w", err)
	}

	markdown, err := d.converter.ConvertString(article.Content)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}

	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return "", fmt.Errorf("empty digest")
	}

	if len(markdown) > d.maxChars {
		markdown = truncateAtBoundary(markdown, d.maxChars)
	}

	if article.Title != "" {
		markdown = "# " + article.Title + "\n\n" + markdown
	}

	return markdown, nil
}

// validatePageURL blocks non-HTTP schemes, localhost, and private addresses.
func validatePageURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("only HTTP(S) URLs are allowed")
	}

	host := parsed.Hostname()
	lowHost := strings.ToLower(host)
	if lowHost == "localhost" {
		return fmt.Errorf("localhost URLs are not allowed")
	}
	if strings.HasSuffix(lowHost, ".local") || strings.HasSuffix(lowHost, ".internal") {
		return fmt.Errorf("local domain URLs are not allowed")
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
			return fmt.Errorf("private IP addresses are not allowed")
		}
	}

	return nil
}

// truncateAtBoundary cuts markdown at the last line break before max,
// so the digest doesn't end mid-sentence. The cut never splits a rune.
func truncateAtBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	cut := s[:max]
	if idx := strings.LastIndex(cut, "\n"); idx > max/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "\n…"
}
