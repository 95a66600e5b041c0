package scraper

import "context"

// User agents sent to origin sites. Some sites only serve metadata to browsers.
const (
	DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	MobileUserAgent  = "Mozilla/5.0 (Linux; Android 10; K) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Mobile Safari/537.36"
)

// Fetcher defines the interface for retrieving a page's HTML.
type Fetcher interface {
	// FetchHTML returns the page body and the final URL after redirects.
	FetchHTML(ctx context.Context, url string) (body []byte, finalURL string, err error)
}
