package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"savesense/internal/domain"
	"savesense/internal/scraper"
)

// SourceReddit tags metadata produced by the Reddit enricher.
const SourceReddit = "reddit_api"

var errHTMLResponse = errors.New("received HTML instead of JSON")

// Reddit reads post details from Reddit's public JSON endpoints.
type Reddit struct {
	client *scraper.Client
	log    logrus.FieldLogger
}

// NewReddit creates a new Reddit enricher.
func NewReddit(client *scraper.Client, logger logrus.FieldLogger) *Reddit {
	return &Reddit{client: client, log: logger.WithField("component", "reddit")}
}

func (r *Reddit) Platform() domain.Platform { return domain.PlatformReddit }

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title              string `json:"title"`
	Selftext           string `json:"selftext"`
	Subreddit          string `json:"subreddit"`
	Author             string `json:"author"`
	Thumbnail          string `json:"thumbnail"`
	URLOverriddenByDst string `json:"url_overridden_by_dest"`
}

// Enrich fetches the post referenced by rawURL, resolving share shortlinks
// first. A shortlink that cannot be resolved is queried as is.
func (r *Reddit) Enrich(ctx context.Context, rawURL string) (*domain.Metadata, error) {
	clean := stripQuery(rawURL)

	if isShortlink(clean) {
		resolved, err := r.client.ResolveRedirects(ctx, clean, scraper.DesktopUserAgent)
		if err != nil {
			r.log.WithError(err).WithField("url", clean).Warn("Failed to resolve shortlink")
		} else {
			clean = stripQuery(resolved)
		}
	}

	jsonURL := clean + "/.json"
	if strings.HasSuffix(clean, "/") {
		jsonURL = clean + ".json"
	}

	resp, err := r.client.Get(ctx, jsonURL, scraper.DesktopUserAgent)
	if err != nil {
		return nil, err
	}

	body := bytes.TrimSpace(resp.Body)
	if bytes.HasPrefix(body, []byte("<")) {
		return nil, errHTMLResponse
	}

	var listings []redditListing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", jsonURL, err)
	}
	if len(listings) == 0 || len(listings[0].Data.Children) == 0 {
		return nil, nil
	}
	post := listings[0].Data.Children[0].Data

	md := &domain.Metadata{
		Title:       post.Title,
		Description: post.Selftext,
		Image:       post.URLOverriddenByDst,
		Subreddit:   "r/" + post.Subreddit,
		Author:      "u/" + post.Author,
		Source:      SourceReddit,
	}
	if md.Description == "" {
		md.Description = "Shared from r/" + post.Subreddit
	}
	if md.Image == "" && isHTTPURL(post.Thumbnail) {
		md.Image = post.Thumbnail
	}
	return md, nil
}

func stripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}

func isShortlink(u string) bool {
	return strings.Contains(u, "/s/") || strings.Contains(strings.ToLower(u), "redd.it")
}

// isHTTPURL filters out thumbnail placeholders such as "self" or "default".
func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
