package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// ErrNoBrowser is returned when no Chromium executable can be found.
var ErrNoBrowser = errors.New("rod browser dependency not found")

// BrowserFetcher renders pages in a headless browser before reading their HTML.
// It is used for pages whose metadata is injected by JavaScript.
type BrowserFetcher struct {
	log     logrus.FieldLogger
	timeout time.Duration
}

// NewBrowserFetcher creates a new browser-backed fetcher.
func NewBrowserFetcher(logger logrus.FieldLogger, timeout time.Duration) *BrowserFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BrowserFetcher{
		log:     logger.WithField("component", "browser_fetcher"),
		timeout: timeout,
	}
}

// FetchHTML launches a browser, loads url and returns the rendered document.
func (s *BrowserFetcher) FetchHTML(ctx context.Context, url string) (body []byte, finalURL string, err error) {
	log := s.log.WithField("url", url)
	log.Debug("Rendering page")

	path, exists := launcher.LookPath()
	if !exists {
		return nil, "", ErrNoBrowser
	}
	u, err := launcher.New().Bin(path).Context(ctx).Launch()
	if err != nil {
		return nil, "", fmt.Errorf("failed to launch browser: %w", err)
	}
	browser := rod.New().ControlURL(u)
	if err = browser.Connect(); err != nil {
		return nil, "", fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("Error closing rod browser instance")
		}
	}()

	pageCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	page, err := browser.Context(pageCtx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create page: %w", err)
	}
	if err = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: DesktopUserAgent}); err != nil {
		return nil, "", fmt.Errorf("failed to set user agent: %w", err)
	}
	if err = page.Navigate(url); err != nil {
		return nil, "", fmt.Errorf("failed to navigate: %w", err)
	}
	if err = page.WaitLoad(); err != nil {
		if errors.Is(pageCtx.Err(), context.DeadlineExceeded) {
			return nil, "", fmt.Errorf("rendering timed out for %s: %w", url, pageCtx.Err())
		}
		return nil, "", fmt.Errorf("failed waiting for page load: %w", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, "", fmt.Errorf("failed to read rendered html: %w", err)
	}

	finalURL = url
	if info, infoErr := page.Info(); infoErr == nil && info.URL != "" {
		finalURL = info.URL
	}

	log.WithField("size", len(html)).Debug("Page rendered")
	return []byte(html), finalURL, nil
}
