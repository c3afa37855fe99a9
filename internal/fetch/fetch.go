// Package fetch retrieves raw page HTML for the harvester.
// Every source kind shares one timeout and one browser-like identity.
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

	"github.com/jonathan/research-analyzer/internal/config"
	"github.com/jonathan/research-analyzer/internal/logger"
)

// DefaultTimeout is the per-URL request timeout.
const DefaultTimeout = 10 * time.Second

// Result holds the raw content from a URL fetch.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Error represents an error during URL fetching.
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
	// UseBrowser re-renders pages whose visible text is shorter than
	// MinContentLength in headless Chrome.
	UseBrowser bool
}

// DefaultOptions returns the standard fetch options.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: config.DefaultUserAgent,
	}
}

// OptionsFromConfig builds fetch options from the harvest configuration.
func OptionsFromConfig(cfg config.HarvestConfig) *Options {
	opts := DefaultOptions()
	if cfg.FetchTimeout > 0 {
		opts.Timeout = cfg.FetchTimeout
	}
	if cfg.UserAgent != "" {
		opts.UserAgent = cfg.UserAgent
	}
	opts.UseBrowser = cfg.UseBrowser
	return opts
}

// URL retrieves HTML content from a URL. Any non-2xx status is an error; the
// partial Result is still returned alongside it.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
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

	req.Header.Set("User-Agent", opts.UserAgent)
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

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "failed to read response body",
			Cause:   err,
		}
	}

	result := &Result{
		URL:         urlStr,
		HTML:        string(bodyBytes),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, &Error{
			URL:     urlStr,
			Message: fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}

	return result, nil
}

// Client fetches pages with fixed options. It satisfies the harvester's
// Fetcher interface.
type Client struct {
	opts *Options
}

// NewClient creates a fetch client. Nil options use DefaultOptions.
func NewClient(opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Client{opts: opts}
}

// Fetch returns the raw HTML for urlStr.
func (c *Client) Fetch(ctx context.Context, urlStr string) (string, error) {
	result, err := URL(ctx, urlStr, c.opts)
	if err != nil {
		return "", err
	}

	if c.opts.UseBrowser && ShouldUseBrowser(visibleText(result.HTML)) {
		rendered, err := WithBrowser(ctx, urlStr, c.opts.Timeout)
		if err != nil {
			logger.Log.WithField("url", urlStr).Debugf("browser fallback failed, keeping HTTP body: %v", err)
			return result.HTML, nil
		}
		return rendered, nil
	}

	return result.HTML, nil
}

// visibleText returns the body text with script and style content removed.
func visibleText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	return strings.TrimSpace(doc.Find("body").Text())
}
