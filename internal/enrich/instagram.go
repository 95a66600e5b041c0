package enrich

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"savesense/internal/domain"
	"savesense/internal/scraper"
)

// SourceInstagram tags metadata produced by the Instagram enricher.
const SourceInstagram = "instagram_mirror"

var (
	shortcodePattern   = regexp.MustCompile(`/(?:p|reel|tv)/([A-Za-z0-9_-]+)`)
	titleAuthorPattern = regexp.MustCompile(`^(.+?)\s\(@`)
	lineBreakPattern   = regexp.MustCompile(`(?i)<br\s*/?>`)

	errNoShortcode = errors.New("no shortcode in url")
)

// Instagram scrapes post details from a public mirror of instagram.com.
type Instagram struct {
	client  *scraper.Client
	baseURL string
	policy  *bluemonday.Policy
}

// NewInstagram creates a new Instagram enricher.
func NewInstagram(client *scraper.Client) *Instagram {
	return &Instagram{
		client:  client,
		baseURL: "https://imginn.com",
		policy:  bluemonday.StrictPolicy(),
	}
}

func (i *Instagram) Platform() domain.Platform { return domain.PlatformInstagram }

// Post is what the mirror page exposes about a post.
type Post struct {
	Shortcode    string
	Author       string
	AuthorAvatar string
	Caption      string
	MediaURL     string
	IsVideo      bool
}

// Enrich fetches the mirror page for the post referenced by rawURL.
func (i *Instagram) Enrich(ctx context.Context, rawURL string) (*domain.Metadata, error) {
	m := shortcodePattern.FindStringSubmatch(rawURL)
	if m == nil {
		return nil, errNoShortcode
	}

	resp, err := i.client.Get(ctx, fmt.Sprintf("%s/p/%s/", i.baseURL, m[1]), scraper.DesktopUserAgent)
	if err != nil {
		return nil, err
	}

	post, err := i.parsePost(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse post %s: %w", m[1], err)
	}
	post.Shortcode = m[1]

	md := &domain.Metadata{
		Title:        "Instagram Post",
		Description:  post.Caption,
		Image:        post.MediaURL,
		Author:       post.Author,
		AuthorAvatar: post.AuthorAvatar,
		IsVideo:      post.IsVideo,
		Source:       SourceInstagram,
	}
	if post.Author != "" {
		md.Title = post.Author + " on Instagram"
	}
	if md.Image == "" {
		md.Image = post.AuthorAvatar
	}
	return md, nil
}

func (i *Instagram) parsePost(body []byte) (Post, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Post{}, err
	}

	var post Post

	post.Author = strings.TrimSpace(doc.Find(".username").First().Text())
	if post.Author == "" {
		if m := titleAuthorPattern.FindStringSubmatch(strings.TrimSpace(doc.Find("title").First().Text())); m != nil {
			post.Author = strings.TrimSpace(m[1])
		}
	}

	post.AuthorAvatar = firstAttr(doc, "src", ".user img", ".avatar img")

	if raw, err := doc.Find(".description").First().Html(); err == nil {
		post.Caption = i.plainText(raw)
	}
	if post.Caption == "" {
		post.Caption = strings.TrimSpace(doc.Find("meta[name='description']").AttrOr("content", ""))
	}

	if src := firstAttr(doc, "src", ".media video source", ".media video"); src != "" {
		post.MediaURL = src
		post.IsVideo = true
	} else {
		post.MediaURL = firstAttr(doc, "href", ".media a")
		if post.MediaURL == "" {
			post.MediaURL = firstAttr(doc, "src", ".media img")
		}
		if post.MediaURL == "" {
			post.MediaURL = firstAttr(doc, "content", "meta[property='og:image']")
		}
	}

	post.MediaURL = scraper.AbsoluteURL(post.MediaURL)
	post.AuthorAvatar = scraper.AbsoluteURL(post.AuthorAvatar)
	return post, nil
}

// plainText strips markup from a caption fragment, keeping line breaks.
func (i *Instagram) plainText(fragment string) string {
	fragment = lineBreakPattern.ReplaceAllString(fragment, "\n")
	return strings.TrimSpace(html.UnescapeString(i.policy.Sanitize(fragment)))
}

// firstAttr returns attr of the first element matching any selector, in order.
func firstAttr(doc *goquery.Document, attr string, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
