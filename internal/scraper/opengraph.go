package scraper

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"savesense/internal/domain"
)

// SourceOpenGraph tags metadata produced by the generic scraper.
const SourceOpenGraph = "opengraph"

// OpenGraph is the best-effort metadata scraper used for any URL.
type OpenGraph struct {
	fetcher Fetcher
	browser Fetcher
	log     logrus.FieldLogger
}

// NewOpenGraph creates a scraper reading pages through fetcher. When browser is
// non-nil it is tried for pages whose plain HTML yields no title.
func NewOpenGraph(fetcher Fetcher, browser Fetcher, logger logrus.FieldLogger) *OpenGraph {
	return &OpenGraph{
		fetcher: fetcher,
		browser: browser,
		log:     logger.WithField("component", "opengraph"),
	}
}

// Scrape returns title, image and description for pageURL. It never fails: if
// the page cannot be fetched the title is domain.UntitledLink.
func (g *OpenGraph) Scrape(ctx context.Context, pageURL string) domain.Metadata {
	log := g.log.WithField("url", pageURL)

	md, err := g.scrapeWith(ctx, g.fetcher, pageURL)
	if err != nil {
		log.WithError(err).Warn("Metadata fetch failed")
	}
	if !md.HasTitle() && g.browser != nil && ctx.Err() == nil {
		rendered, berr := g.scrapeWith(ctx, g.browser, pageURL)
		if berr != nil {
			log.WithError(berr).Warn("Browser metadata fetch failed")
		} else {
			rendered.FillFrom(md)
			md = rendered
		}
	}

	if md.Title == "" {
		md.Title = domain.UntitledLink
	}
	return md
}

func (g *OpenGraph) scrapeWith(ctx context.Context, f Fetcher, pageURL string) (domain.Metadata, error) {
	body, finalURL, err := f.FetchHTML(ctx, pageURL)
	if err != nil {
		// Error pages often still carry the site's metadata.
		var se *StatusError
		if !errors.As(err, &se) || len(se.Body) == 0 {
			return domain.Metadata{}, err
		}
		md, perr := ParseOpenGraph(se.Body, pageURL)
		if perr != nil || md.IsEmpty() {
			return domain.Metadata{}, err
		}
		return md, nil
	}
	md, err := ParseOpenGraph(body, finalURL)
	if err != nil {
		return domain.Metadata{}, err
	}
	return md, nil
}

// ParseOpenGraph extracts Open Graph metadata from an HTML document, falling
// back to <title> and the plain description meta tag.
func ParseOpenGraph(body []byte, pageURL string) (domain.Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.Metadata{}, err
	}

	md := domain.Metadata{
		Title:       metaContent(doc, "og:title"),
		Description: metaContent(doc, "og:description"),
		Image:       resolveURL(pageURL, metaContent(doc, "og:image")),
	}
	if md.Title == "" {
		md.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if md.Description == "" {
		md.Description = metaContent(doc, "description")
	}
	if !md.IsEmpty() {
		md.Source = SourceOpenGraph
	}
	return md, nil
}

// metaContent returns the content of the first meta tag whose property or
// name equals key.
func metaContent(doc *goquery.Document, key string) string {
	sel := doc.Find("meta[property='" + key + "'], meta[name='" + key + "']")
	var content string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr("content"); ok && strings.TrimSpace(v) != "" {
			content = strings.TrimSpace(v)
			return false
		}
		return true
	})
	return content
}

// resolveURL makes ref absolute relative to base.
func resolveURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// AbsoluteURL normalizes protocol-relative URLs to https.
func AbsoluteURL(ref string) string {
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	return ref
}
