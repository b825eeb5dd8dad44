// Package fetch retrieves vocabulary text from URLs, local files or stdin.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 60 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; UnitBrowser/1.0)"

// DefaultMaxBytes caps the size of a downloaded vocabulary.
const DefaultMaxBytes = 64 << 20

// Result holds the raw and processed content of a retrieval.
type Result struct {
	URL         string // URL or file path the text came from
	Body        string
	Text        string // vocabulary text, unwrapped from HTML when needed
	ContentType string
	StatusCode  int
	Documents   []Document // per-file text when several files were read
}

// Document is the text of one input file. Each document is extracted on its
// own so unit blocks never continue across a file boundary.
type Document struct {
	Name string
	Text string
}

// Docs returns the documents of r, or a single document holding Text.
func (r *Result) Docs() []Document {
	if len(r.Documents) > 0 {
		return r.Documents
	}
	return []Document{{Name: r.URL, Text: r.Text}}
}

// Error represents an error during retrieval.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	MaxBytes  int64
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		Headers:   map[string]string{"Accept": "text/turtle, text/plain;q=0.9, */*;q=0.5"},
		MaxBytes:  DefaultMaxBytes,
	}
}

// URL retrieves vocabulary text from a URL. A single attempt is made.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}

	client := &http.Client{
		Timeout: opts.Timeout,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "failed to create request",
			Cause:   err,
		}
	}

	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "HTTP request failed",
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "failed to read response body",
			Cause:   err,
		}
	}
	if int64(len(bodyBytes)) > maxBytes {
		return nil, &Error{
			URL:     urlStr,
			Message: fmt.Sprintf("response exceeds %d bytes", maxBytes),
		}
	}

	result := &Result{
		URL:         urlStr,
		Body:        string(bodyBytes),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode != http.StatusOK {
		return result, &Error{
			URL:     urlStr,
			Message: fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}

	text, err := VocabularyText(result.Body, result.ContentType)
	if err != nil {
		return result, &Error{
			URL:     urlStr,
			Message: "failed to unwrap HTML response",
			Cause:   err,
		}
	}
	result.Text = text

	return result, nil
}

// VocabularyText returns body unchanged unless it is an HTML page, in which
// case the text of its <pre> blocks is returned. Mirrors that serve the
// vocabulary inside an HTML page are handled this way.
func VocabularyText(body, contentType string) (string, error) {
	if !isHTML(body, contentType) {
		return body, nil
	}
	return ExtractPreformatted(body)
}

// ExtractPreformatted joins the text of every <pre> element, keeping
// whitespace intact. Pages without <pre> fall back to the body text.
func ExtractPreformatted(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	blocks := doc.Find("pre")
	if blocks.Length() == 0 {
		doc.Find("script, style, noscript").Remove()
		return doc.Find("body").Text(), nil
	}

	parts := make([]string, 0, blocks.Length())
	blocks.Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, s.Text())
	})
	return strings.Join(parts, "\n"), nil
}

func isHTML(body, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	head := strings.ToLower(strings.TrimSpace(body))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}
