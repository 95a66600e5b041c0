package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// maxBodySize caps how much of a response is read.
const maxBodySize = 5 << 20

// StatusError is returned for non-2xx responses. Body holds the response body.
type StatusError struct {
	URL    string
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Status, e.URL)
}

// Response is a fully read HTTP response.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Client performs plain GET and HEAD requests with a spoofed user agent.
type Client struct {
	http *http.Client
	ua   string
	log  logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithUserAgent sets the User-Agent used by FetchHTML.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.ua = ua }
}

// NewClient creates a new HTTP client.
func NewClient(logger logrus.FieldLogger, opts ...Option) *Client {
	c := &Client{
		http: &http.Client{Timeout: 15 * time.Second},
		ua:   MobileUserAgent,
		log:  logger.WithField("component", "http_client"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get fetches url with the given user agent. Non-2xx responses are returned as *StatusError.
func (c *Client) Get(ctx context.Context, url, userAgent string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", url, err)
	}

	c.log.WithFields(logrus.Fields{
		"url":    url,
		"status": resp.StatusCode,
		"size":   len(body),
	}).Debug("Fetched")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Status: resp.StatusCode, Body: body}
	}

	return &Response{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// ResolveRedirects issues a HEAD request, follows redirects and returns the final URL.
func (c *Client) ResolveRedirects(ctx context.Context, url, userAgent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", url, err)
	}
	resp.Body.Close()

	return resp.Request.URL.String(), nil
}

// FetchHTML implements Fetcher using the client's configured user agent.
func (c *Client) FetchHTML(ctx context.Context, url string) ([]byte, string, error) {
	resp, err := c.Get(ctx, url, c.ua)
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.URL, nil
}
