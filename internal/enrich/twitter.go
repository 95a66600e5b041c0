package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"savesense/internal/domain"
	"savesense/internal/scraper"
)

// SourceTwitter tags metadata produced by the Twitter enricher.
const SourceTwitter = "twitter_api"

var (
	statusIDPattern = regexp.MustCompile(`status(?:es)?/(\d+)`)

	errNoStatusID = errors.New("no status id in url")
)

// Twitter reads tweet details from the public vxtwitter status API.
type Twitter struct {
	client  *scraper.Client
	baseURL string
}

// NewTwitter creates a new Twitter enricher.
func NewTwitter(client *scraper.Client) *Twitter {
	return &Twitter{client: client, baseURL: "https://api.vxtwitter.com"}
}

func (t *Twitter) Platform() domain.Platform { return domain.PlatformTwitter }

type tweet struct {
	UserName         string   `json:"user_name"`
	UserScreenName   string   `json:"user_screen_name"`
	Text             string   `json:"text"`
	MediaURLs        []string `json:"mediaURLs"`
	UserProfileImage string   `json:"user_profile_image_url"`
}

// Enrich fetches the status referenced by rawURL.
func (t *Twitter) Enrich(ctx context.Context, rawURL string) (*domain.Metadata, error) {
	m := statusIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return nil, errNoStatusID
	}

	resp, err := t.client.Get(ctx, fmt.Sprintf("%s/status/%s", t.baseURL, m[1]), scraper.DesktopUserAgent)
	if err != nil {
		return nil, err
	}

	var tw tweet
	if err := json.Unmarshal(resp.Body, &tw); err != nil {
		return nil, fmt.Errorf("failed to decode status %s: %w", m[1], err)
	}
	if tw.UserScreenName == "" && tw.Text == "" {
		return nil, nil
	}

	md := &domain.Metadata{
		Title:        fmt.Sprintf("%s (@%s)", tw.UserName, tw.UserScreenName),
		Description:  tw.Text,
		Image:        tw.UserProfileImage,
		Author:       "@" + tw.UserScreenName,
		AuthorAvatar: tw.UserProfileImage,
		Source:       SourceTwitter,
	}
	if len(tw.MediaURLs) > 0 && tw.MediaURLs[0] != "" {
		md.Image = tw.MediaURLs[0]
	}
	return md, nil
}
